// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package aggregate implements the scheduled rollup jobs that reduce raw
// diaper-change events into daily summaries, weekly patterns, and monthly
// cost records, plus the retention sweep over aged daily summaries.
//
// The jobs depend on two collaborators expressed as interfaces so they can
// be backed by the DuckDB store in production and by in-memory fakes in
// tests. Every write is a single idempotent upsert keyed by the row's
// unique constraint, so re-running a job for the same period overwrites
// rather than duplicates.
package aggregate

import (
	"context"
	"time"

	"github.com/nestlog/nestlog/internal/models"
)

// EventSource lists raw change events for one child. Implementations must
// return events in non-decreasing timestamp order per change type; the gap
// statistics in the daily rollup rely on that ordering.
type EventSource interface {
	ListEvents(ctx context.Context, childID string, start, end time.Time) ([]models.ChangeEvent, error)
}

// SummaryStore persists and serves the computed rollup rows. Upserts are
// keyed by (child, date), (child, week_start), and (child, month)
// respectively.
type SummaryStore interface {
	UpsertDailySummary(ctx context.Context, summary *models.DailySummary) error
	UpsertWeeklyPattern(ctx context.Context, pattern *models.WeeklyPattern) error
	UpsertMonthlyCost(ctx context.Context, record *models.MonthlyCostRecord) error

	// ListDailySummaries returns summaries with start <= date < end,
	// ordered by date ascending.
	ListDailySummaries(ctx context.Context, childID string, start, end time.Time) ([]models.DailySummary, error)

	// DeleteDailySummariesBefore deletes summaries with date strictly
	// before cutoff and returns the number of rows removed.
	DeleteDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ActiveChildren returns the distinct children with at least one
	// change event in [start, end).
	ActiveChildren(ctx context.Context, start, end time.Time) ([]string, error)
}
