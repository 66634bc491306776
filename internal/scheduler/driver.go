// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package scheduler provides the orchestration entry points invoked by an
// external trigger at fixed cadences: daily, weekly (self-gated to fire
// after a week closes), monthly, and retention. The package deliberately
// owns no clock; cron or any other trigger calls the Run* methods.
//
// Per-child failure isolation: a failure while aggregating one child is
// logged and skipped so the remaining children still get their rollups.
// Only the retention sweep propagates its error, since a partial sweep
// must be visible to the trigger for retry.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nestlog/nestlog/internal/aggregate"
	"github.com/nestlog/nestlog/internal/metrics"
)

// Config holds scheduling parameters.
type Config struct {
	// Timezone is the calendar used for day, week, and month boundaries.
	Timezone *time.Location

	// RetentionDays is the daily-summary retention horizon.
	RetentionDays int
}

// Driver wires the aggregation jobs to the active-child set and the
// calendar. All entry points are safe to re-run: every underlying write is
// an idempotent upsert.
type Driver struct {
	store   aggregate.SummaryStore
	daily   *aggregate.DailyAggregator
	weekly  *aggregate.WeeklyPatternCalculator
	monthly *aggregate.MonthlyCostAnalyzer
	sweeper *aggregate.RetentionSweeper
	loc     *time.Location
	keep    int
	logger  zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewDriver creates a schedule driver.
func NewDriver(
	store aggregate.SummaryStore,
	daily *aggregate.DailyAggregator,
	weekly *aggregate.WeeklyPatternCalculator,
	monthly *aggregate.MonthlyCostAnalyzer,
	sweeper *aggregate.RetentionSweeper,
	logger *zerolog.Logger,
	cfg Config,
) *Driver {
	loc := cfg.Timezone
	if loc == nil {
		loc = time.UTC
	}
	keep := cfg.RetentionDays
	if keep <= 0 {
		keep = aggregate.DefaultRetentionDays
	}

	return &Driver{
		store:   store,
		daily:   daily,
		weekly:  weekly,
		monthly: monthly,
		sweeper: sweeper,
		loc:     loc,
		keep:    keep,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// RunDaily aggregates the prior calendar day for every child active that
// day. Intended cadence: once per day, shortly after midnight.
func (d *Driver) RunDaily(ctx context.Context) error {
	started := d.now()
	yesterday := d.today().AddDate(0, 0, -1)
	logger := d.runLogger("daily")

	children, err := d.store.ActiveChildren(ctx, yesterday, yesterday.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("discover active children for %s: %w", yesterday.Format("2006-01-02"), err)
	}

	logger.Info().
		Str("date", yesterday.Format("2006-01-02")).
		Int("children", len(children)).
		Msg("Daily aggregation run started")

	for _, childID := range children {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := d.daily.Aggregate(ctx, childID, yesterday); err != nil {
			// Per-child isolation: log and keep processing the rest.
			metrics.RecordJobFailure("daily")
			logger.Error().
				Err(err).
				Str("child_id", childID).
				Msg("Daily aggregation failed for child, continuing")
		}
	}

	metrics.RecordJobRun("daily", d.now().Sub(started))
	logger.Info().Dur("duration", d.now().Sub(started)).Msg("Daily aggregation run finished")
	return nil
}

// RunWeeklyIfDue aggregates the week that ended yesterday, but only when
// yesterday was a Sunday. Intended cadence: once per day alongside
// RunDaily; the gate makes it fire once per week.
func (d *Driver) RunWeeklyIfDue(ctx context.Context) error {
	yesterday := d.today().AddDate(0, 0, -1)
	if yesterday.Weekday() != time.Sunday {
		d.logger.Debug().
			Str("date", yesterday.Format("2006-01-02")).
			Msg("Weekly aggregation not due")
		return nil
	}

	started := d.now()
	weekStart := yesterday.AddDate(0, 0, -6) // the Monday opening that week
	logger := d.runLogger("weekly")

	children, err := d.store.ActiveChildren(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return fmt.Errorf("discover active children for week %s: %w", weekStart.Format("2006-01-02"), err)
	}

	logger.Info().
		Str("week_start", weekStart.Format("2006-01-02")).
		Int("children", len(children)).
		Msg("Weekly aggregation run started")

	for _, childID := range children {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := d.weekly.Calculate(ctx, childID, weekStart); err != nil {
			metrics.RecordJobFailure("weekly")
			logger.Error().
				Err(err).
				Str("child_id", childID).
				Msg("Weekly aggregation failed for child, continuing")
		}
	}

	metrics.RecordJobRun("weekly", d.now().Sub(started))
	logger.Info().Dur("duration", d.now().Sub(started)).Msg("Weekly aggregation run finished")
	return nil
}

// RunMonthly aggregates the prior calendar month for every child active in
// it. Intended cadence: once per month, early in the new month.
func (d *Driver) RunMonthly(ctx context.Context) error {
	started := d.now()
	today := d.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, d.loc).AddDate(0, -1, 0)
	monthLabel := monthStart.Format("2006-01")
	logger := d.runLogger("monthly")

	children, err := d.store.ActiveChildren(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return fmt.Errorf("discover active children for month %s: %w", monthLabel, err)
	}

	logger.Info().
		Str("month", monthLabel).
		Int("children", len(children)).
		Msg("Monthly aggregation run started")

	for _, childID := range children {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := d.monthly.Calculate(ctx, childID, monthLabel); err != nil {
			metrics.RecordJobFailure("monthly")
			logger.Error().
				Err(err).
				Str("child_id", childID).
				Msg("Monthly aggregation failed for child, continuing")
		}
	}

	metrics.RecordJobRun("monthly", d.now().Sub(started))
	logger.Info().Dur("duration", d.now().Sub(started)).Msg("Monthly aggregation run finished")
	return nil
}

// RunRetention sweeps aged daily summaries once. Unlike the per-child
// jobs, a sweep failure propagates so the trigger can retry.
func (d *Driver) RunRetention(ctx context.Context) error {
	started := d.now()

	deleted, err := d.sweeper.Sweep(ctx, d.keep)
	if err != nil {
		metrics.RecordJobFailure("retention")
		return err
	}

	metrics.RecordJobRun("retention", d.now().Sub(started))
	logger := d.runLogger("retention")
	logger.Info().
		Int64("deleted", deleted).
		Dur("duration", d.now().Sub(started)).
		Msg("Retention run finished")
	return nil
}

// today returns midnight of the current day in the driver's calendar.
func (d *Driver) today() time.Time {
	now := d.now().In(d.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
}

// runLogger tags log events with the job name and a unique run ID so
// overlapping or retried runs can be told apart in aggregated logs.
func (d *Driver) runLogger(job string) zerolog.Logger {
	return d.logger.With().
		Str("job", job).
		Str("run_id", uuid.New().String()).
		Logger()
}
