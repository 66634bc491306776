// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestlog/nestlog/internal/models"
)

// DefaultTargetCost is the per-change cost target used for the efficiency
// score when no explicit target is configured, in dollars.
const DefaultTargetCost = 0.20

// monthLayout is the canonical "YYYY-MM" month label format.
const monthLayout = "2006-01"

// weekdayLabels in Monday-first order; ties for costliest weekday resolve
// to the earliest label in this order.
var weekdayLabels = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// MonthlyCostAnalyzer reduces one calendar month of daily summaries into a
// MonthlyCostRecord and upserts it.
type MonthlyCostAnalyzer struct {
	store      SummaryStore
	loc        *time.Location
	targetCost float64
	logger     zerolog.Logger
}

// NewMonthlyCostAnalyzer creates a monthly analyzer. A non-positive
// targetCost falls back to DefaultTargetCost; nil loc defaults to UTC.
func NewMonthlyCostAnalyzer(store SummaryStore, loc *time.Location, targetCost float64, logger *zerolog.Logger) *MonthlyCostAnalyzer {
	if loc == nil {
		loc = time.UTC
	}
	if targetCost <= 0 {
		targetCost = DefaultTargetCost
	}
	return &MonthlyCostAnalyzer{
		store:      store,
		loc:        loc,
		targetCost: targetCost,
		logger:     logger.With().Str("component", "monthly-analyzer").Logger(),
	}
}

// Calculate computes and persists the cost record for (childID, month),
// where month is a "YYYY-MM" label. Re-running overwrites the row.
func (a *MonthlyCostAnalyzer) Calculate(ctx context.Context, childID, month string) (*models.MonthlyCostRecord, error) {
	parsed, err := time.ParseInLocation(monthLayout, month, a.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid month label %q: %w", month, err)
	}
	monthStart := parsed
	monthEnd := monthStart.AddDate(0, 1, 0)

	summaries, err := a.store.ListDailySummaries(ctx, childID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries for child %s month %s: %w", childID, month, err)
	}

	record := &models.MonthlyCostRecord{
		ChildID: childID,
		Month:   month,
	}

	byDate := make(map[string]models.DailySummary, len(summaries))
	var weekdayChanges, weekendChanges int
	var costByWeekday [7]float64

	for _, summary := range summaries {
		record.TotalCost += summary.EstimatedCost
		record.TotalChanges += summary.TotalChanges

		idx := mondayFirstIndex(summary.Date.Weekday())
		costByWeekday[idx] += summary.EstimatedCost
		if idx >= weekendStartsIdx {
			weekendChanges += summary.TotalChanges
		} else {
			weekdayChanges += summary.TotalChanges
		}

		byDate[summary.Date.Format("2006-01-02")] = summary
	}

	record.CostPerChange = SafeDiv(record.TotalCost, float64(record.TotalChanges), 0)

	// A month with no spend trivially meets the target.
	if record.CostPerChange > 0 {
		record.EfficiencyVsTarget = clampPercent(a.targetCost / record.CostPerChange * 100)
	} else {
		record.EfficiencyVsTarget = 100
	}

	weekdayDays, weekendDays := countDayTypes(monthStart, monthEnd)
	weekdayAvg := SafeDiv(float64(weekdayChanges), float64(weekdayDays), 0)
	weekendAvg := SafeDiv(float64(weekendChanges), float64(weekendDays), 0)
	record.WeekendWeekdayRatio = RatioPercent(weekendAvg, weekdayAvg, 100)

	record.CostliestWeekday = costliestWeekday(costByWeekday)

	// Trend over the month's last seven calendar days, oldest first.
	for i := 0; i < 7; i++ {
		day := monthEnd.AddDate(0, 0, i-7)
		if summary, ok := byDate[day.Format("2006-01-02")]; ok {
			record.CostTrend[i] = summary.EstimatedCost
		}
	}

	if err := a.store.UpsertMonthlyCost(ctx, record); err != nil {
		return nil, fmt.Errorf("upsert monthly cost record for child %s: %w", childID, err)
	}

	a.logger.Debug().
		Str("child_id", childID).
		Str("month", month).
		Float64("total_cost", record.TotalCost).
		Float64("cost_per_change", record.CostPerChange).
		Msg("Monthly cost record calculated")

	return record, nil
}

// mondayFirstIndex maps time.Weekday (Sunday = 0) to Monday-first indices
// (Monday = 0 .. Sunday = 6).
func mondayFirstIndex(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}

// countDayTypes counts weekday and weekend calendar days in [start, end).
func countDayTypes(start, end time.Time) (weekdays, weekends int) {
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if mondayFirstIndex(day.Weekday()) >= weekendStartsIdx {
			weekends++
		} else {
			weekdays++
		}
	}
	return weekdays, weekends
}

// costliestWeekday returns the label with the highest summed cost. Ties
// resolve to the first label in Monday-first order; an all-zero month
// resolves to Monday.
func costliestWeekday(costByWeekday [7]float64) string {
	best := 0
	for i := 1; i < 7; i++ {
		if costByWeekday[i] > costByWeekday[best] {
			best = i
		}
	}
	return weekdayLabels[best]
}
