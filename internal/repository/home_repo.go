package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"home_climate/internal/models"
)

type GarageSQLite struct {
	db *sql.DB
}

func NewGarageSQLite(db *sql.DB) *GarageSQLite {
	return &GarageSQLite{db: db}
}

const (
	garageDoorRowID = 1

	seedGarageDoorSQL = `INSERT INTO garage_doors (id, updated_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`

	selectGarageDoorSQL = `
		SELECT in_motion, motion_direction, position, target_position, updated_at
		FROM garage_doors WHERE id = ?
	`

	updateGarageDoorSQL = `
		UPDATE garage_doors SET
			in_motion = COALESCE(?, in_motion),
			motion_direction = COALESCE(?, motion_direction),
			position = COALESCE(?, position),
			target_position = COALESCE(?, target_position),
			updated_at = ?
		WHERE id = ?
	`
)

// Get returns the garage door status, ErrNotFound before the first operation.
func (r *GarageSQLite) Get(ctx context.Context) (models.GarageDoor, error) {
	door, err := scanGarageDoor(r.db.QueryRowContext(ctx, selectGarageDoorSQL, garageDoorRowID))
	if err != nil {
		return models.GarageDoor{}, fmt.Errorf("select garage door: %w", err)
	}
	return door, nil
}

// Apply merges the patch into the status row, creating it on first use.
func (r *GarageSQLite) Apply(ctx context.Context, patch models.GarageDoorPatch) (models.GarageDoor, error) {
	if err := validateDoc(patch); err != nil {
		return models.GarageDoor{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.GarageDoor{}, fmt.Errorf("begin garage door update: %w", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, seedGarageDoorSQL, garageDoorRowID, now); err != nil {
		return models.GarageDoor{}, fmt.Errorf("seed garage door: %w", err)
	}
	if _, err := tx.ExecContext(ctx, updateGarageDoorSQL,
		patch.InMotion,
		patch.MotionDirection,
		patch.Position,
		patch.TargetPosition,
		now,
		garageDoorRowID,
	); err != nil {
		return models.GarageDoor{}, fmt.Errorf("update garage door: %w", err)
	}

	door, err := scanGarageDoor(tx.QueryRowContext(ctx, selectGarageDoorSQL, garageDoorRowID))
	if err != nil {
		return models.GarageDoor{}, fmt.Errorf("reload garage door: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.GarageDoor{}, fmt.Errorf("commit garage door update: %w", err)
	}
	return door, nil
}

func scanGarageDoor(row rowScanner) (models.GarageDoor, error) {
	var d models.GarageDoor
	err := row.Scan(&d.InMotion, &d.MotionDirection, &d.Position, &d.TargetPosition, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GarageDoor{}, ErrNotFound
	}
	if err != nil {
		return models.GarageDoor{}, err
	}
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

type VideoSQLite struct {
	db *sql.DB
}

func NewVideoSQLite(db *sql.DB) *VideoSQLite {
	return &VideoSQLite{db: db}
}

const (
	videoColumns = `id, filename, location, start_at, end_at, duration, trigger_event, starred, created_at`

	insertVideoSQL = `
		INSERT INTO videos (filename, location, start_at, end_at, duration, trigger_event, starred, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectRecentVideosSQL     = `SELECT ` + videoColumns + ` FROM videos ORDER BY created_at DESC, id DESC LIMIT ?`
	selectVideosByLocationSQL = `SELECT ` + videoColumns + ` FROM videos WHERE location = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	selectVideoByFilenameSQL  = `SELECT ` + videoColumns + ` FROM videos WHERE filename = ?`
	deleteVideoSQL            = `DELETE FROM videos WHERE filename = ?`
)

func (r *VideoSQLite) Create(ctx context.Context, v models.Video) (models.Video, error) {
	if err := validateDoc(v); err != nil {
		return models.Video{}, err
	}
	now := time.Now().UTC()
	if v.StartDateTime.IsZero() {
		v.StartDateTime = now
	}
	if v.EndDateTime.IsZero() {
		v.EndDateTime = v.StartDateTime.Add(time.Duration(v.Duration * float64(time.Second)))
	}

	res, err := r.db.ExecContext(ctx, insertVideoSQL,
		v.Filename,
		v.Location,
		v.StartDateTime.UTC(),
		v.EndDateTime.UTC(),
		v.Duration,
		v.TriggerEvent,
		v.Starred,
		now,
	)
	if err != nil {
		return models.Video{}, fmt.Errorf("insert video %q: %w", v.Filename, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Video{}, fmt.Errorf("get last insert id for video %q: %w", v.Filename, err)
	}
	v.ID = id
	v.CreatedAt = now
	return v, nil
}

func (r *VideoSQLite) ListRecent(ctx context.Context, limit int) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, selectRecentVideosSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select videos: %w", err)
	}
	return collectVideos(rows)
}

// ListByLocation returns the newest recordings of one camera.
func (r *VideoSQLite) ListByLocation(ctx context.Context, location string, limit int) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, selectVideosByLocationSQL, location, limit)
	if err != nil {
		return nil, fmt.Errorf("select videos at %q: %w", location, err)
	}
	return collectVideos(rows)
}

func collectVideos(rows *sql.Rows) ([]models.Video, error) {
	defer rows.Close()

	out := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VideoSQLite) Delete(ctx context.Context, filename string) (models.Video, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Video{}, fmt.Errorf("begin delete video %q: %w", filename, err)
	}
	defer rollback(tx)

	v, err := scanVideo(tx.QueryRowContext(ctx, selectVideoByFilenameSQL, filename))
	if err != nil {
		return models.Video{}, fmt.Errorf("select video %q: %w", filename, err)
	}
	if _, err := tx.ExecContext(ctx, deleteVideoSQL, filename); err != nil {
		return models.Video{}, fmt.Errorf("delete video %q: %w", filename, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Video{}, fmt.Errorf("commit delete video %q: %w", filename, err)
	}
	return v, nil
}

func scanVideo(row rowScanner) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Filename, &v.Location, &v.StartDateTime, &v.EndDateTime,
		&v.Duration, &v.TriggerEvent, &v.Starred, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, err
	}
	v.StartDateTime = v.StartDateTime.UTC()
	v.EndDateTime = v.EndDateTime.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}
