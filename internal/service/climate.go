package service

import (
	"context"
	"errors"

	"home_climate/internal/models"
	"home_climate/internal/repository"
)

const (
	intervalsPerDay = 24 * 4 // one archive interval every 15 minutes
	maxHistoryDays  = 366
)

var (
	ErrNoClimateData   = errors.New("no climate data recorded yet")
	ErrInvalidTimeSpan = errors.New("invalid time span: days must be between 1 and 366")
)

type ClimateService struct {
	climateRepo repository.ClimateRepo
}

func NewClimateService(climateRepo repository.ClimateRepo) *ClimateService {
	return &ClimateService{climateRepo: climateRepo}
}

// Latest returns the most recent reading.
func (s *ClimateService) Latest(ctx context.Context) (models.ClimateReading, error) {
	r, err := s.climateRepo.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ClimateReading{}, ErrNoClimateData
	}
	return r, err
}

// History returns archived readings, newest first, that together cover the
// requested number of days.
func (s *ClimateService) History(ctx context.Context, days int) ([]models.ClimateReading, error) {
	if days < 1 || days > maxHistoryDays {
		return nil, ErrInvalidTimeSpan
	}
	intervals := days * intervalsPerDay
	archived, err := s.climateRepo.ListArchived(ctx, intervals)
	if err != nil {
		return nil, err
	}
	return coverIntervals(archived, intervals), nil
}

// coverIntervals keeps readings until their spans add up to want.
func coverIntervals(readings []models.ClimateReading, want int) []models.ClimateReading {
	out := make([]models.ClimateReading, 0, len(readings))
	covered := 0
	for _, r := range readings {
		if covered >= want {
			break
		}
		covered += r.ArchiveSpan
		out = append(out, r)
	}
	return out
}

// Record stores a reading reported by the thermostat.
func (s *ClimateService) Record(ctx context.Context, r models.ClimateReading) (models.ClimateReading, error) {
	return s.climateRepo.Create(ctx, r)
}

// ApplySettings overwrites the settings of the latest reading once the
// thermostat confirmed them. An empty patch just returns the latest reading.
func (s *ClimateService) ApplySettings(ctx context.Context, settings models.ClimateSettings) (models.ClimateReading, error) {
	if settings.Empty() {
		return s.Latest(ctx)
	}
	r, err := s.climateRepo.PatchLatest(ctx, settings)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ClimateReading{}, ErrNoClimateData
	}
	return r, err
}
