package service

import (
	"context"
	"errors"
	"strings"

	"home_climate/internal/models"
	"home_climate/internal/repository"
)

var (
	ErrNoGarageStatus = errors.New("garage door has not reported yet")
	ErrVideoNotFound  = errors.New("video not found")
	ErrEmptyFilename  = errors.New("filename is required")
)

const (
	DefaultVideoListSize = 12
	maxVideoListSize     = 100
)

type GarageService struct {
	garageRepo repository.GarageRepo
}

func NewGarageService(garageRepo repository.GarageRepo) *GarageService {
	return &GarageService{garageRepo: garageRepo}
}

func (s *GarageService) Status(ctx context.Context) (models.GarageDoor, error) {
	door, err := s.garageRepo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.GarageDoor{}, ErrNoGarageStatus
	}
	return door, err
}

// Operate stores the requested door state; clients learn about it through
// the status broadcast.
func (s *GarageService) Operate(ctx context.Context, patch models.GarageDoorPatch) (models.GarageDoor, error) {
	return s.garageRepo.Apply(ctx, patch)
}

type VideoService struct {
	videoRepo repository.VideoRepo
}

func NewVideoService(videoRepo repository.VideoRepo) *VideoService {
	return &VideoService{videoRepo: videoRepo}
}

func (s *VideoService) Register(ctx context.Context, v models.Video) (models.Video, error) {
	v.Filename = strings.TrimSpace(v.Filename)
	if v.Filename == "" {
		return models.Video{}, ErrEmptyFilename
	}
	return s.videoRepo.Create(ctx, v)
}

func (s *VideoService) Recent(ctx context.Context, limit int) ([]models.Video, error) {
	return s.videoRepo.ListRecent(ctx, clampListSize(limit))
}

func (s *VideoService) ByLocation(ctx context.Context, location string, limit int) ([]models.Video, error) {
	return s.videoRepo.ListByLocation(ctx, strings.TrimSpace(location), clampListSize(limit))
}

func (s *VideoService) Remove(ctx context.Context, filename string) (models.Video, error) {
	v, err := s.videoRepo.Delete(ctx, strings.TrimSpace(filename))
	if errors.Is(err, repository.ErrNotFound) {
		return models.Video{}, ErrVideoNotFound
	}
	return v, err
}

func clampListSize(limit int) int {
	switch {
	case limit <= 0:
		return DefaultVideoListSize
	case limit > maxVideoListSize:
		return maxVideoListSize
	default:
		return limit
	}
}
