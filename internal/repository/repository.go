package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"home_climate/internal/models"
)

// ErrNotFound is returned when a looked-up document does not exist.
var ErrNotFound = errors.New("not found")

// UserRepo is the account collection.
type UserRepo interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// ClimateRepo is the climate time series collection.
type ClimateRepo interface {
	Create(ctx context.Context, r models.ClimateReading) (models.ClimateReading, error)
	Latest(ctx context.Context) (models.ClimateReading, error)
	PatchLatest(ctx context.Context, s models.ClimateSettings) (models.ClimateReading, error)
	CompactLatest(ctx context.Context) (models.CompactionResult, error)
	DeleteUnarchived(ctx context.Context) (int64, error)
	ListArchived(ctx context.Context, limit int) ([]models.ClimateReading, error)
}

// ProgramRepo is the climate program collection. Every method that changes
// activation runs as a single transaction.
type ProgramRepo interface {
	Create(ctx context.Context, p models.ClimateProgram) (models.ClimateProgram, error)
	Get(ctx context.Context, id int64) (models.ClimateProgram, error)
	List(ctx context.Context) ([]models.ClimateProgram, error)
	Active(ctx context.Context) (models.ClimateProgram, error)
	Activate(ctx context.Context, id int64) (models.ClimateProgram, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
	DeactivateAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, id int64, patch models.ProgramPatch) (models.ClimateProgram, error)
	Delete(ctx context.Context, id int64) (models.ClimateProgram, error)
}

type GarageRepo interface {
	Get(ctx context.Context) (models.GarageDoor, error)
	Apply(ctx context.Context, patch models.GarageDoorPatch) (models.GarageDoor, error)
}

type VideoRepo interface {
	Create(ctx context.Context, v models.Video) (models.Video, error)
	ListRecent(ctx context.Context, limit int) ([]models.Video, error)
	ListByLocation(ctx context.Context, location string, limit int) ([]models.Video, error)
	Delete(ctx context.Context, filename string) (models.Video, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ClimateEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ClimateEvent, error)
}

type Repository struct {
	Climate  ClimateRepo
	Programs ProgramRepo
	Garage   GarageRepo
	Videos   VideoRepo
	Events   EventRepo
	Users    UserRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Climate:  NewClimateSQLite(db),
		Programs: NewProgramSQLite(db),
		Garage:   NewGarageSQLite(db),
		Videos:   NewVideoSQLite(db),
		Events:   NewEventSQLite(db),
		Users:    NewUserSQLite(db),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rollback is deferred after BeginTx; it is a no-op once the tx committed.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
