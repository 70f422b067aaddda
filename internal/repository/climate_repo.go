package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"home_climate/internal/models"
)

type ClimateSQLite struct {
	db *sql.DB
}

func NewClimateSQLite(db *sql.DB) *ClimateSQLite {
	return &ClimateSQLite{db: db}
}

const (
	readingColumns = `id, zone_data, selected_mode, selected_zone, operating_status, target_temperature,
		sleep, stored_program, archive, archive_span, created_at, updated_at`

	insertReadingSQL = `
		INSERT INTO climate_readings (zone_data, selected_mode, selected_zone, operating_status,
			target_temperature, sleep, stored_program, archive, archive_span, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?)
	`

	selectLatestReadingSQL = `SELECT ` + readingColumns + ` FROM climate_readings ORDER BY id DESC LIMIT 1`

	selectArchivedReadingsSQL = `SELECT ` + readingColumns + ` FROM climate_readings WHERE archive = 1 ORDER BY id DESC LIMIT ?`

	selectCompactionTargetSQL = `SELECT id, archive, archive_span FROM climate_readings ORDER BY id DESC LIMIT 1`

	incrementArchiveSpanSQL = `UPDATE climate_readings SET archive_span = archive_span + 1, updated_at = ? WHERE id = ?`

	markArchivedSQL = `UPDATE climate_readings SET archive = 1, updated_at = ? WHERE id = ?`

	deleteUnarchivedSQL = `DELETE FROM climate_readings WHERE archive = 0`

	// Touches settings columns only, so it commutes with compaction.
	patchLatestReadingSQL = `
		UPDATE climate_readings SET
			selected_mode = COALESCE(?, selected_mode),
			selected_zone = COALESCE(?, selected_zone),
			target_temperature = COALESCE(?, target_temperature),
			sleep = COALESCE(?, sleep),
			stored_program = COALESCE(?, stored_program),
			updated_at = ?
		WHERE id = (SELECT MAX(id) FROM climate_readings)
	`
)

// Create stores a new reading. New readings are never archived and span one
// interval; the archival scheduler owns those two fields afterwards.
func (r *ClimateSQLite) Create(ctx context.Context, reading models.ClimateReading) (models.ClimateReading, error) {
	reading.Archive = false
	reading.ArchiveSpan = 1
	if reading.ZoneData == nil {
		reading.ZoneData = []models.ZoneData{}
	}
	if err := validateDoc(reading); err != nil {
		return models.ClimateReading{}, err
	}

	zones, err := json.Marshal(reading.ZoneData)
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("marshal zone data: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		string(zones),
		reading.SelectedMode,
		reading.SelectedZone,
		reading.OperatingStatus,
		reading.TargetTemperature,
		reading.Sleep,
		reading.StoredProgram,
		now,
		now,
	)
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("insert climate reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("get last insert id for climate reading: %w", err)
	}

	reading.ID = id
	reading.CreatedAt = now
	reading.UpdatedAt = now
	return reading, nil
}

// Latest returns the most recently inserted reading.
func (r *ClimateSQLite) Latest(ctx context.Context) (models.ClimateReading, error) {
	reading, err := scanReading(r.db.QueryRowContext(ctx, selectLatestReadingSQL))
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("select latest climate reading: %w", err)
	}
	return reading, nil
}

// PatchLatest overwrites settings of the newest reading in place.
func (r *ClimateSQLite) PatchLatest(ctx context.Context, s models.ClimateSettings) (models.ClimateReading, error) {
	if err := validateDoc(s); err != nil {
		return models.ClimateReading{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("begin patch latest: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, patchLatestReadingSQL,
		s.SelectedMode,
		s.SelectedZone,
		s.TargetTemperature,
		s.Sleep,
		s.StoredProgram,
		time.Now().UTC(),
	)
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("patch latest climate reading: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.ClimateReading{}, fmt.Errorf("patch latest climate reading: %w", err)
	} else if n == 0 {
		return models.ClimateReading{}, fmt.Errorf("patch latest climate reading: %w", ErrNotFound)
	}

	reading, err := scanReading(tx.QueryRowContext(ctx, selectLatestReadingSQL))
	if err != nil {
		return models.ClimateReading{}, fmt.Errorf("reload latest climate reading: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.ClimateReading{}, fmt.Errorf("commit patch latest: %w", err)
	}
	return reading, nil
}

// CompactLatest runs one compaction step on the newest reading: an already
// archived row grows its span, an unarchived row becomes the archived one.
func (r *ClimateSQLite) CompactLatest(ctx context.Context) (models.CompactionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CompactionResult{}, fmt.Errorf("begin compaction: %w", err)
	}
	defer rollback(tx)

	var (
		res      models.CompactionResult
		archived bool
	)
	err = tx.QueryRowContext(ctx, selectCompactionTargetSQL).Scan(&res.ReadingID, &archived, &res.ArchiveSpan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompactionResult{Empty: true}, nil
	}
	if err != nil {
		return models.CompactionResult{}, fmt.Errorf("select compaction target: %w", err)
	}

	now := time.Now().UTC()
	if archived {
		if _, err := tx.ExecContext(ctx, incrementArchiveSpanSQL, now, res.ReadingID); err != nil {
			return models.CompactionResult{}, fmt.Errorf("increment archive span of %d: %w", res.ReadingID, err)
		}
		res.ArchiveSpan++
	} else {
		if _, err := tx.ExecContext(ctx, markArchivedSQL, now, res.ReadingID); err != nil {
			return models.CompactionResult{}, fmt.Errorf("mark %d archived: %w", res.ReadingID, err)
		}
		res.Archived = true
	}

	if err := tx.Commit(); err != nil {
		return models.CompactionResult{}, fmt.Errorf("commit compaction: %w", err)
	}
	return res, nil
}

// DeleteUnarchived removes every reading that never became representative.
func (r *ClimateSQLite) DeleteUnarchived(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteUnarchivedSQL)
	if err != nil {
		return 0, fmt.Errorf("delete unarchived readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted readings: %w", err)
	}
	return n, nil
}

// ListArchived returns archived readings newest first.
func (r *ClimateSQLite) ListArchived(ctx context.Context, limit int) ([]models.ClimateReading, error) {
	rows, err := r.db.QueryContext(ctx, selectArchivedReadingsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select archived readings: %w", err)
	}
	defer rows.Close()

	// limit spans whole days of quarter hours; grow with the rows instead.
	out := []models.ClimateReading{}
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archived reading: %w", err)
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReading(row rowScanner) (models.ClimateReading, error) {
	var (
		r     models.ClimateReading
		zones string
	)
	err := row.Scan(
		&r.ID,
		&zones,
		&r.SelectedMode,
		&r.SelectedZone,
		&r.OperatingStatus,
		&r.TargetTemperature,
		&r.Sleep,
		&r.StoredProgram,
		&r.Archive,
		&r.ArchiveSpan,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ClimateReading{}, ErrNotFound
	}
	if err != nil {
		return models.ClimateReading{}, err
	}
	if zones != "" {
		if err := json.Unmarshal([]byte(zones), &r.ZoneData); err != nil {
			return models.ClimateReading{}, fmt.Errorf("decode zone data of %d: %w", r.ID, err)
		}
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}
