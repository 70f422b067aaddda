package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/repository"
)

// Audit log query errors.
var (
	ErrInvalidTimeRange = errors.New("invalid time range: from is after to")
	ErrUnknownEventType = errors.New("unknown event type")
)

var knownEventTypes = map[string]struct{}{
	models.EventProgramActivated:   {},
	models.EventProgramDeactivated: {},
	models.EventProgramRolledBack:  {},
	models.EventArchiveCompacted:   {},
	models.EventArchiveCleaned:     {},
	models.EventArchiveFailed:      {},
}

// EventLogService answers audit log queries over program and archive transitions.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns audit events matching the filter, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ClimateEvent, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, f.From, f.To, f.Type)
	if err != nil {
		return nil, fmt.Errorf("list climate events: %w", err)
	}
	return events, nil
}

// normalize moves both bounds to UTC and canonicalizes the type. Zero bounds
// stay zero (unbounded).
func (f LogFilter) normalize() (LogFilter, error) {
	out := LogFilter{
		From: utc(f.From),
		To:   utc(f.To),
		Type: strings.ToUpper(strings.TrimSpace(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	if out.Type != "" {
		if _, ok := knownEventTypes[out.Type]; !ok {
			return LogFilter{}, fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
		}
	}
	return out, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
