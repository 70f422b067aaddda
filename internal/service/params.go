package service

import (
	"context"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/repository"

	"github.com/google/uuid"
)

// LogFilter supports audit log filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "PROGRAM_ACTIVATED", "ARCHIVE_COMPACTED", ...
}

// Selection is the outcome of selecting a program.
type Selection struct {
	Program      *models.ClimateProgram // nil when the selection cleared the active program
	StoredOnNode bool                   // the thermostat already holds this program
}

// DeleteResult is the outcome of deleting a program.
type DeleteResult struct {
	Program         models.ClimateProgram
	WasActive       bool
	NotifyFieldNode bool // the thermostat runs the deleted program and must stop it
}

// recordEvent appends an audit entry. The audit log is best effort: a failed
// append never fails the transition it describes.
func recordEvent(ctx context.Context, events repository.EventRepo, typ, desc string, meta map[string]any) {
	_ = events.Append(ctx, models.ClimateEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
}
