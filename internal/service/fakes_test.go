package service

import (
	"context"
	"sync"
	"testing"

	"home_climate/internal/models"
	"home_climate/internal/repository"
	"home_climate/internal/repository/db"
)

// newSQLiteRepos opens a private in-memory store for one test.
func newSQLiteRepos(t *testing.T) *repository.Repository {
	t.Helper()
	conn, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("init sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return repository.NewRepository(conn)
}

// stubClimateRepo is a hand-written repository.ClimateRepo with per-method hooks.
type stubClimateRepo struct {
	mu sync.Mutex

	latest      models.ClimateReading
	latestErr   error
	archived    []models.ClimateReading
	compactFn   func() (models.CompactionResult, error)
	deleteFn    func() (int64, error)
	patchFn     func(models.ClimateSettings) (models.ClimateReading, error)
	created     []models.ClimateReading
	compactions int
	cleanups    int
	gotLimit    int
}

func (s *stubClimateRepo) Create(ctx context.Context, r models.ClimateReading) (models.ClimateReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.created) + 1)
	s.created = append(s.created, r)
	return r, nil
}

func (s *stubClimateRepo) Latest(ctx context.Context) (models.ClimateReading, error) {
	return s.latest, s.latestErr
}

func (s *stubClimateRepo) PatchLatest(ctx context.Context, p models.ClimateSettings) (models.ClimateReading, error) {
	return s.patchFn(p)
}

func (s *stubClimateRepo) CompactLatest(ctx context.Context) (models.CompactionResult, error) {
	s.mu.Lock()
	s.compactions++
	s.mu.Unlock()
	return s.compactFn()
}

func (s *stubClimateRepo) DeleteUnarchived(ctx context.Context) (int64, error) {
	s.mu.Lock()
	s.cleanups++
	s.mu.Unlock()
	return s.deleteFn()
}

func (s *stubClimateRepo) ListArchived(ctx context.Context, limit int) ([]models.ClimateReading, error) {
	s.gotLimit = limit
	if len(s.archived) > limit {
		return s.archived[:limit], nil
	}
	return s.archived, nil
}

func (s *stubClimateRepo) counts() (compactions, cleanups int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactions, s.cleanups
}
