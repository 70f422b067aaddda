package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"home_climate/internal/models"

	"github.com/google/uuid"
)

// EventSQLite is the append-only audit log of program and archive transitions.
type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO climate_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`
	selectEventsSQL = `SELECT id, occurred_at, type, message, meta FROM climate_events`
)

// Append stores e, filling in a missing id or timestamp.
func (r *EventSQLite) Append(ctx context.Context, e models.ClimateEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	meta, err := encodeMeta(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode %s metadata: %w", e.Type, err)
	}
	_, err = r.db.ExecContext(ctx, insertEventSQL,
		e.EventID, e.OccurredAt.UTC(), strings.ToUpper(strings.TrimSpace(e.Type)), e.Description, meta)
	if err != nil {
		return fmt.Errorf("insert climate event: %w", err)
	}
	return nil
}

// List returns events in [from, to] (zero bounds are open) of the given type
// ("" for all), oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.ClimateEvent, error) {
	where, args := eventFilter(from, to, typ)
	rows, err := r.db.QueryContext(ctx, selectEventsSQL+where+" ORDER BY occurred_at ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("select climate events: %w", err)
	}
	defer rows.Close()

	out := []models.ClimateEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate climate events: %w", err)
	}
	return out, nil
}

func eventFilter(from, to time.Time, typ string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// encodeMeta returns nil (SQL NULL) for events without metadata.
func encodeMeta(meta any) (*string, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func scanEvent(row rowScanner) (models.ClimateEvent, error) {
	var (
		ev   models.ClimateEvent
		meta sql.NullString
	)
	if err := row.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return models.ClimateEvent{}, fmt.Errorf("scan climate event: %w", err)
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	if meta.Valid && meta.String != "" {
		var v any
		if err := json.Unmarshal([]byte(meta.String), &v); err != nil {
			ev.Metadata = meta.String
		} else {
			ev.Metadata = v
		}
	}
	return ev, nil
}
