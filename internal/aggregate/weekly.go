// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package aggregate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestlog/nestlog/internal/models"
)

// daysInWeek and the weekday/weekend split. Weeks run Monday through
// Sunday; index 0 = Monday, indices 5 and 6 are the weekend.
const (
	daysInWeek       = 7
	weekdayCount     = 5
	weekendCount     = 2
	weekendStartsIdx = 5
)

// WeeklyPatternCalculator reduces seven consecutive daily summaries into a
// WeeklyPattern and upserts it.
type WeeklyPatternCalculator struct {
	store  SummaryStore
	loc    *time.Location
	logger zerolog.Logger
}

// NewWeeklyPatternCalculator creates a weekly calculator. loc defines the
// calendar used for week boundaries; nil defaults to UTC.
func NewWeeklyPatternCalculator(store SummaryStore, loc *time.Location, logger *zerolog.Logger) *WeeklyPatternCalculator {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyPatternCalculator{
		store:  store,
		loc:    loc,
		logger: logger.With().Str("component", "weekly-calculator").Logger(),
	}
}

// Calculate computes and persists the weekly pattern for the week starting
// at weekStart (a Monday). Days without a daily summary count as zero.
func (c *WeeklyPatternCalculator) Calculate(ctx context.Context, childID string, weekStart time.Time) (*models.WeeklyPattern, error) {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, c.loc)
	end := start.AddDate(0, 0, daysInWeek)

	summaries, err := c.store.ListDailySummaries(ctx, childID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries for child %s week %s: %w", childID, start.Format("2006-01-02"), err)
	}

	pattern := &models.WeeklyPattern{
		ChildID:   childID,
		WeekStart: start,
	}

	for _, summary := range summaries {
		offset := dayOffset(start, summary.Date)
		if offset < 0 || offset >= daysInWeek {
			continue
		}
		pattern.DailyCounts[offset] = summary.TotalChanges
		for hour, count := range summary.HourHistogram {
			pattern.PeakHours[hour] += count
		}
	}

	total := 0
	weekdayTotal := 0
	weekendTotal := 0
	for i, count := range pattern.DailyCounts {
		total += count
		if i >= weekendStartsIdx {
			weekendTotal += count
		} else {
			weekdayTotal += count
		}
	}

	// Exact division, stored unrounded.
	pattern.WeeklyAverage = float64(total) / daysInWeek
	pattern.ConsistencyPct = consistencyScore(pattern.DailyCounts, pattern.WeeklyAverage)
	pattern.WeekdayAverage = float64(weekdayTotal) / weekdayCount
	pattern.WeekendAverage = float64(weekendTotal) / weekendCount
	pattern.WeekendWeekdayRatio = RatioPercent(pattern.WeekendAverage, pattern.WeekdayAverage, 100)

	if err := c.store.UpsertWeeklyPattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("upsert weekly pattern for child %s: %w", childID, err)
	}

	c.logger.Debug().
		Str("child_id", childID).
		Str("week_start", start.Format("2006-01-02")).
		Float64("weekly_average", pattern.WeeklyAverage).
		Float64("consistency_pct", pattern.ConsistencyPct).
		Msg("Weekly pattern calculated")

	return pattern, nil
}

// consistencyScore measures how tightly daily counts cluster around the
// weekly mean: 100 minus the coefficient of variation as a percentage,
// clamped to [0, 100]. A perfectly uniform week (including all-zero) scores
// 100; the score decreases monotonically as variance grows.
func consistencyScore(counts [7]int, mean float64) float64 {
	if mean == 0 {
		return 100
	}

	var variance float64
	for _, count := range counts {
		diff := float64(count) - mean
		variance += diff * diff
	}
	variance /= daysInWeek

	cv := math.Sqrt(variance) / mean
	return clampPercent(100 - cv*100)
}

// dayOffset returns the number of calendar days from start to date,
// rounded to absorb DST-shortened or -lengthened days.
func dayOffset(start, date time.Time) int {
	return int(math.Round(date.Sub(start).Hours() / 24))
}
