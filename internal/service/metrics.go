package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "home_climate_archive_ticks_total",
		Help: "Archive scheduler runs by action and outcome.",
	}, []string{"action", "outcome"})

	archiveDeletedReadings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "home_climate_archive_deleted_readings_total",
		Help: "Climate readings removed by the cleanup pass.",
	})

	archiveSpanGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "home_climate_archive_latest_span",
		Help: "Archive span of the newest reading after the last compaction.",
	})
)
