package models

import "time"

// Event types recorded in the climate audit log.
const (
	EventProgramActivated   = "PROGRAM_ACTIVATED"
	EventProgramDeactivated = "PROGRAM_DEACTIVATED"
	EventProgramRolledBack  = "PROGRAM_ROLLED_BACK"
	EventArchiveCompacted   = "ARCHIVE_COMPACTED"
	EventArchiveCleaned     = "ARCHIVE_CLEANED"
	EventArchiveFailed      = "ARCHIVE_FAILED"
)

// ClimateEvent is a single audit log entry for a state transition.
type ClimateEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
