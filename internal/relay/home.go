package relay

import (
	"context"

	"home_climate/internal/models"
	"home_climate/internal/service"
)

type videoRef struct {
	Filename string `json:"filename"`
	Location string `json:"location,omitempty"`
}

type videoQuery struct {
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

func (r *Relay) registerHomeRoutes() {
	r.on(EventOperateGarageDoor, RoleClient, r.operateGarageDoor)

	// Camera commands go straight to the field node.
	for _, ev := range []string{EventSetCamera, EventStream, EventSetMotionDetection, EventShutdown} {
		r.on(ev, RoleClient, r.forward(proxyOf(ev)))
	}

	r.on(EventGetVideoList, RoleClient, r.getVideoList)
	r.on(EventGetVideosByParams, RoleClient, r.getVideosByParams)
	r.on(EventDeleteVideo, RoleClient, r.deleteVideo)

	r.on(EventNodeVideoAvailable, RoleFieldNode, r.videoAvailable)
	r.on(EventNodeVideoTrigger, RoleFieldNode, r.videoTrigger)
}

func (r *Relay) operateGarageDoor(ctx context.Context, c call) error {
	var patch models.GarageDoorPatch
	if err := c.decode(&patch); err != nil {
		return err
	}
	door, err := r.services.Garage.Operate(ctx, patch)
	if err != nil {
		return err
	}
	r.broadcast(BroadcastGarageDoor, door)
	return nil
}

// getVideoList replies to the requesting peer only.
func (r *Relay) getVideoList(ctx context.Context, c call) error {
	videos, err := r.services.Videos.Recent(ctx, service.DefaultVideoListSize)
	if err != nil {
		return err
	}
	return c.peer.Send(Envelope{Type: ReplyVideoList, Data: videos})
}

func (r *Relay) getVideosByParams(ctx context.Context, c call) error {
	var q videoQuery
	if err := c.decode(&q); err != nil {
		return err
	}
	videos, err := r.services.Videos.ByLocation(ctx, q.Location, q.Limit)
	if err != nil {
		return err
	}
	return c.peer.Send(Envelope{Type: ReplyVideoList, Data: videos})
}

func (r *Relay) deleteVideo(ctx context.Context, c call) error {
	var ref videoRef
	if err := c.decode(&ref); err != nil {
		return err
	}
	removed, err := r.services.Videos.Remove(ctx, ref.Filename)
	if err != nil {
		return err
	}
	r.broadcast(BroadcastVideoDeleted, removed)
	return nil
}

func (r *Relay) videoAvailable(ctx context.Context, c call) error {
	session, err := sessionOf(c.peer)
	if err != nil {
		return err
	}
	var v VideoAnnouncement
	if err := c.decode(&v); err != nil {
		return err
	}
	if err := session.SetVideo(v); err != nil {
		return err
	}
	r.broadcast(BroadcastVideoName, v)
	return r.completeUpload(ctx, session)
}

func (r *Relay) videoTrigger(ctx context.Context, c call) error {
	session, err := sessionOf(c.peer)
	if err != nil {
		return err
	}
	var t VideoTrigger
	if err := c.decode(&t); err != nil {
		return err
	}
	if err := session.SetTrigger(t); err != nil {
		return err
	}
	return r.completeUpload(ctx, session)
}

// completeUpload stores the video once both halves of the announcement are in.
func (r *Relay) completeUpload(ctx context.Context, session *UploadSession) error {
	v, ok := session.Take()
	if !ok {
		return nil
	}
	saved, err := r.services.Videos.Register(ctx, v)
	if err != nil {
		return err
	}
	r.log.Infow("video_registered", "filename", saved.Filename, "location", saved.Location, "trigger", saved.TriggerEvent)
	r.broadcast(BroadcastNewVideo, saved)
	return nil
}

func sessionOf(p Peer) (*UploadSession, error) {
	owner, ok := p.(SessionOwner)
	if !ok || owner.UploadSession() == nil {
		return nil, ErrNoSession
	}
	return owner.UploadSession(), nil
}
