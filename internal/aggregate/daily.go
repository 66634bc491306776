// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestlog/nestlog/internal/models"
)

// DailyAggregator reduces one child's raw change events for one calendar
// day into a DailySummary and upserts it.
type DailyAggregator struct {
	events EventSource
	store  SummaryStore
	loc    *time.Location
	logger zerolog.Logger
}

// NewDailyAggregator creates a daily aggregator. loc defines the calendar
// used for day boundaries and the hour histogram; nil defaults to UTC.
func NewDailyAggregator(events EventSource, store SummaryStore, loc *time.Location, logger *zerolog.Logger) *DailyAggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyAggregator{
		events: events,
		store:  store,
		loc:    loc,
		logger: logger.With().Str("component", "daily-aggregator").Logger(),
	}
}

// Aggregate computes and persists the daily summary for (childID, date).
// Re-running for the same day overwrites the existing row.
func (a *DailyAggregator) Aggregate(ctx context.Context, childID string, date time.Time) (*models.DailySummary, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, a.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := a.events.ListEvents(ctx, childID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list events for child %s on %s: %w", childID, dayStart.Format("2006-01-02"), err)
	}

	summary := &models.DailySummary{
		ChildID: childID,
		Date:    dayStart,
	}

	brandTally := make(map[string]int)
	sizeTally := make(map[string]int)
	byType := make(map[string][]time.Time)

	for _, event := range events {
		summary.TotalChanges++
		summary.ChangeTimes = append(summary.ChangeTimes, event.Timestamp)
		summary.HourHistogram[event.Timestamp.In(a.loc).Hour()]++
		summary.EstimatedCost += event.Cost

		if event.Brand != "" {
			brandTally[event.Brand]++
		}
		if event.Size != "" {
			sizeTally[event.Size]++
		}
		byType[event.Type] = append(byType[event.Type], event.Timestamp)
	}

	summary.DominantBrand = dominantLabel(brandTally)
	summary.DominantSize = dominantLabel(sizeTally)
	summary.AvgGapMinutes, summary.LongestGapMinutes, summary.ShortestGapMinutes = gapStats(byType)

	if err := a.store.UpsertDailySummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("upsert daily summary for child %s: %w", childID, err)
	}

	a.logger.Debug().
		Str("child_id", childID).
		Str("date", dayStart.Format("2006-01-02")).
		Int("changes", summary.TotalChanges).
		Float64("cost", summary.EstimatedCost).
		Msg("Daily summary aggregated")

	return summary, nil
}

// gapStats computes average, longest, and shortest inter-change gaps in
// minutes. Gaps are taken between consecutive events of the SAME type in
// timestamp order, always against the preceding event in that ordering.
// Backfilled historical events therefore never produce negative gaps.
// All three values are zero when no type has two or more events.
func gapStats(byType map[string][]time.Time) (avg, longest, shortest float64) {
	var gaps []float64

	for _, timestamps := range byType {
		sort.Slice(timestamps, func(i, j int) bool {
			return timestamps[i].Before(timestamps[j])
		})
		for i := 1; i < len(timestamps); i++ {
			gaps = append(gaps, timestamps[i].Sub(timestamps[i-1]).Minutes())
		}
	}

	if len(gaps) == 0 {
		return 0, 0, 0
	}

	var sum float64
	longest = gaps[0]
	shortest = gaps[0]
	for _, gap := range gaps {
		sum += gap
		if gap > longest {
			longest = gap
		}
		if gap < shortest {
			shortest = gap
		}
	}
	return sum / float64(len(gaps)), longest, shortest
}

// dominantLabel returns the label with the highest tally. Ties resolve to
// the lexicographically smallest label so repeated runs stay deterministic.
func dominantLabel(tally map[string]int) string {
	best := ""
	bestCount := 0
	for label, count := range tally {
		if count > bestCount || (count == bestCount && best != "" && label < best) {
			best = label
			bestCount = count
		}
	}
	return best
}
