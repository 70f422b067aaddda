package service

import (
	"context"
	"time"

	"home_climate/internal/logger"
	"home_climate/internal/models"
	"home_climate/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (*Claims, error)
}

// Climate exposes the climate time series: latest reading, history and the
// two write paths used by the field node.
type Climate interface {
	Latest(ctx context.Context) (models.ClimateReading, error)
	History(ctx context.Context, days int) ([]models.ClimateReading, error)
	Record(ctx context.Context, r models.ClimateReading) (models.ClimateReading, error)
	ApplySettings(ctx context.Context, s models.ClimateSettings) (models.ClimateReading, error)
}

// Programs is the program selection state machine.
type Programs interface {
	Create(ctx context.Context, p models.ClimateProgram) (models.ClimateProgram, error)
	Select(ctx context.Context, id int64) (Selection, error)
	Update(ctx context.Context, id int64, patch models.ProgramPatch) (models.ClimateProgram, error)
	Delete(ctx context.Context, id int64) (DeleteResult, error)
	Applied(ctx context.Context, ack models.ProgramAck) (*models.ClimateProgram, error)
	Active(ctx context.Context) (*models.ClimateProgram, error)
	List(ctx context.Context) ([]models.ClimateProgram, error)
	Get(ctx context.Context, id int64) (models.ClimateProgram, error)
}

// Archiver runs the compaction and cleanup schedule over the climate series.
// Stop via context cancellation in main() for graceful shutdown.
type Archiver interface {
	Run(ctx context.Context)
	Compact(ctx context.Context)
	Cleanup(ctx context.Context)
}

type Garage interface {
	Status(ctx context.Context) (models.GarageDoor, error)
	Operate(ctx context.Context, patch models.GarageDoorPatch) (models.GarageDoor, error)
}

type Videos interface {
	Register(ctx context.Context, v models.Video) (models.Video, error)
	Recent(ctx context.Context, limit int) ([]models.Video, error)
	ByLocation(ctx context.Context, location string, limit int) ([]models.Video, error)
	Remove(ctx context.Context, filename string) (models.Video, error)
}

// EventLog exposes the audit log of program and archive transitions.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ClimateEvent, error)
}

// Service aggregates all sub-services. Several of them share method names,
// so callers go through the named field (services.Programs.List).
type Service struct {
	Climate
	Programs
	Archiver
	Garage
	Videos
	EventLog
	Authorization
}

// Config carries the knobs services read from configuration.
type Config struct {
	SigningKey         string
	TokenTTL           time.Duration
	Admins             []string
	CompactionInterval time.Duration
	CleanupInterval    time.Duration
}

func NewService(repos *repository.Repository, cfg Config, log *logger.Logger) *Service {
	return &Service{
		Climate:       NewClimateService(repos.Climate),
		Programs:      NewProgramService(repos.Programs, repos.Climate, repos.Events),
		Archiver:      NewArchiveScheduler(repos.Climate, repos.Events, log, cfg.CompactionInterval, cfg.CleanupInterval),
		Garage:        NewGarageService(repos.Garage),
		Videos:        NewVideoService(repos.Videos),
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Users, cfg.SigningKey, cfg.TokenTTL, cfg.Admins...),
	}
}
