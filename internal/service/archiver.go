package service

import (
	"context"
	"time"

	"home_climate/internal/logger"
	"home_climate/internal/models"
	"home_climate/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultCompactionInterval = 15 * time.Minute
	DefaultCleanupInterval    = 24 * time.Hour
)

// Tick outcomes reported to metrics.
const (
	outcomeArchived = "archived"
	outcomeExtended = "extended"
	outcomeEmpty    = "empty"
	outcomeCleaned  = "cleaned"
	outcomeError    = "error"
)

// ArchiveScheduler keeps the climate series bounded: a compaction tick marks
// or extends the newest reading, a cleanup pass drops readings that never
// became representative.
type ArchiveScheduler struct {
	climateRepo  repository.ClimateRepo
	eventRepo    repository.EventRepo
	log          *logger.Logger
	compactEvery time.Duration
	cleanupEvery time.Duration
}

func NewArchiveScheduler(climateRepo repository.ClimateRepo, eventRepo repository.EventRepo, log *logger.Logger,
	compactEvery, cleanupEvery time.Duration) *ArchiveScheduler {
	if compactEvery <= 0 {
		compactEvery = DefaultCompactionInterval
	}
	if cleanupEvery <= 0 {
		cleanupEvery = DefaultCleanupInterval
	}
	return &ArchiveScheduler{
		climateRepo:  climateRepo,
		eventRepo:    eventRepo,
		log:          log.Component("archiver"),
		compactEvery: compactEvery,
		cleanupEvery: cleanupEvery,
	}
}

// Run ticks both schedules independently until ctx is canceled.
func (s *ArchiveScheduler) Run(ctx context.Context) {
	s.log.Infow("archive_scheduler_started",
		"compaction_interval", s.compactEvery.String(),
		"cleanup_interval", s.cleanupEvery.String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		every(ctx, s.compactEvery, s.Compact)
		return nil
	})
	g.Go(func() error {
		every(ctx, s.cleanupEvery, s.Cleanup)
		return nil
	})
	_ = g.Wait()

	s.log.Infow("archive_scheduler_stopped")
}

func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}

// Compact runs one compaction tick. Failures are logged and left for the
// next tick.
func (s *ArchiveScheduler) Compact(ctx context.Context) {
	res, err := s.climateRepo.CompactLatest(ctx)
	if err != nil {
		archiveTicks.WithLabelValues("compaction", outcomeError).Inc()
		s.log.Errorw("archive_compaction_failed", "err", err)
		recordEvent(ctx, s.eventRepo, models.EventArchiveFailed, "compaction tick failed",
			map[string]any{"action": "compaction", "error": err.Error()})
		return
	}

	switch {
	case res.Empty:
		archiveTicks.WithLabelValues("compaction", outcomeEmpty).Inc()
		s.log.Debugw("archive_compaction_skipped", "reason", "no readings")
		return
	case res.Archived:
		archiveTicks.WithLabelValues("compaction", outcomeArchived).Inc()
		s.log.Infow("archive_reading_marked", "reading_id", res.ReadingID)
	default:
		archiveTicks.WithLabelValues("compaction", outcomeExtended).Inc()
		s.log.Infow("archive_span_extended", "reading_id", res.ReadingID, "archive_span", res.ArchiveSpan)
	}
	archiveSpanGauge.Set(float64(res.ArchiveSpan))

	recordEvent(ctx, s.eventRepo, models.EventArchiveCompacted, "compaction tick", map[string]any{
		"reading_id":   res.ReadingID,
		"archived":     res.Archived,
		"archive_span": res.ArchiveSpan,
	})
}

// Cleanup deletes every reading that was never marked as archived.
func (s *ArchiveScheduler) Cleanup(ctx context.Context) {
	n, err := s.climateRepo.DeleteUnarchived(ctx)
	if err != nil {
		archiveTicks.WithLabelValues("cleanup", outcomeError).Inc()
		s.log.Errorw("archive_cleanup_failed", "err", err)
		recordEvent(ctx, s.eventRepo, models.EventArchiveFailed, "cleanup pass failed",
			map[string]any{"action": "cleanup", "error": err.Error()})
		return
	}

	archiveTicks.WithLabelValues("cleanup", outcomeCleaned).Inc()
	archiveDeletedReadings.Add(float64(n))
	s.log.Infow("archive_cleanup_done", "deleted", n)
	recordEvent(ctx, s.eventRepo, models.EventArchiveCleaned, "cleanup pass",
		map[string]any{"deleted": n})
}
