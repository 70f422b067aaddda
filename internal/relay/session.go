package relay

import (
	"errors"
	"strings"
	"sync"
	"time"

	"home_climate/internal/models"
)

var (
	ErrUploadNameTaken    = errors.New("upload already has a video name")
	ErrUploadTriggerTaken = errors.New("upload already has a trigger event")
)

// VideoAnnouncement is what the camera sends when a recording is ready.
type VideoAnnouncement struct {
	Filename      string    `json:"filename"`
	Location      string    `json:"location"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Duration      float64   `json:"duration"`
}

// VideoTrigger names the event that started a recording.
type VideoTrigger struct {
	TriggerEvent string `json:"triggerEvent"`
}

// UploadSession pairs the two halves of a recording announcement. Each field
// node connection owns one, so concurrent uploads from different connections
// never mix.
type UploadSession struct {
	mu      sync.Mutex
	video   *VideoAnnouncement
	trigger string
}

func NewUploadSession() *UploadSession {
	return &UploadSession{}
}

// SetVideo records the announced file. It fails while a previous name is
// still waiting for its trigger.
func (s *UploadSession) SetVideo(v VideoAnnouncement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video != nil {
		return ErrUploadNameTaken
	}
	v.Filename = strings.TrimSpace(v.Filename)
	s.video = &v
	return nil
}

func (s *UploadSession) SetTrigger(t VideoTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trigger != "" {
		return ErrUploadTriggerTaken
	}
	s.trigger = strings.TrimSpace(t.TriggerEvent)
	return nil
}

// Take returns the completed video and resets the session. ok is false until
// both halves are known.
func (s *UploadSession) Take() (models.Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil || s.trigger == "" {
		return models.Video{}, false
	}
	v := models.Video{
		Filename:      s.video.Filename,
		Location:      s.video.Location,
		StartDateTime: s.video.StartDateTime,
		EndDateTime:   s.video.EndDateTime,
		Duration:      s.video.Duration,
		TriggerEvent:  s.trigger,
	}
	s.video, s.trigger = nil, ""
	return v, true
}

// Reset drops any half-known upload.
func (s *UploadSession) Reset() {
	s.mu.Lock()
	s.video, s.trigger = nil, ""
	s.mu.Unlock()
}

// SessionOwner is implemented by peers that carry an upload session.
type SessionOwner interface {
	UploadSession() *UploadSession
}
