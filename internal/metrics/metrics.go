// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package metrics provides Prometheus collectors for the query cache and
// the scheduled aggregation jobs. Collectors are registered via promauto at
// package load; recording helpers keep call sites to one line.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nestlog_cache_hits_total",
			Help: "Total number of query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nestlog_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nestlog_cache_evictions_total",
			Help: "Total number of query cache evictions (expiry and LRU)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nestlog_cache_entries",
			Help: "Current number of entries in the query cache",
		},
	)

	// Aggregation job metrics
	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nestlog_aggregation_runs_total",
			Help: "Total number of aggregation job runs",
		},
		[]string{"job"}, // "daily", "weekly", "monthly", "retention"
	)

	AggregationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nestlog_aggregation_failures_total",
			Help: "Total number of per-child aggregation failures",
		},
		[]string{"job"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nestlog_aggregation_duration_seconds",
			Help:    "Duration of aggregation job runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"job"},
	)

	RetentionDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nestlog_retention_deleted_rows_total",
			Help: "Total number of daily summary rows deleted by retention sweeps",
		},
	)
)

// RecordJobRun records one completed run of a scheduled job.
func RecordJobRun(job string, duration time.Duration) {
	AggregationRuns.WithLabelValues(job).Inc()
	AggregationDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordJobFailure records a per-unit failure within a scheduled job.
func RecordJobFailure(job string) {
	AggregationFailures.WithLabelValues(job).Inc()
}
