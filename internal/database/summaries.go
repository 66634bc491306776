// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package database

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/nestlog/nestlog/internal/models"
)

// encodeJSON marshals an array-valued summary column to its JSON text form.
func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(data), nil
}

// decodeJSON unmarshals a JSON text column into target.
func decodeJSON(data string, target any) error {
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

// UpsertDailySummary writes a daily rollup, replacing any existing row for
// the same child and date.
func (db *DB) UpsertDailySummary(ctx context.Context, summary *models.DailySummary) error {
	changeTimes, err := encodeJSON(summary.ChangeTimes)
	if err != nil {
		return err
	}
	histogram, err := encodeJSON(summary.HourHistogram)
	if err != nil {
		return err
	}

	query := `INSERT INTO daily_summaries (
		child_id, date, total_changes, change_times, hour_histogram,
		estimated_cost, dominant_brand, dominant_size,
		avg_gap_minutes, longest_gap_minutes, shortest_gap_minutes, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (child_id, date) DO UPDATE SET
		total_changes = EXCLUDED.total_changes,
		change_times = EXCLUDED.change_times,
		hour_histogram = EXCLUDED.hour_histogram,
		estimated_cost = EXCLUDED.estimated_cost,
		dominant_brand = EXCLUDED.dominant_brand,
		dominant_size = EXCLUDED.dominant_size,
		avg_gap_minutes = EXCLUDED.avg_gap_minutes,
		longest_gap_minutes = EXCLUDED.longest_gap_minutes,
		shortest_gap_minutes = EXCLUDED.shortest_gap_minutes,
		updated_at = now()`

	_, err = db.conn.ExecContext(ctx, query,
		summary.ChildID,
		summary.Date,
		summary.TotalChanges,
		changeTimes,
		histogram,
		summary.EstimatedCost,
		summary.DominantBrand,
		summary.DominantSize,
		summary.AvgGapMinutes,
		summary.LongestGapMinutes,
		summary.ShortestGapMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary for %s/%s: %w",
			summary.ChildID, summary.Date.Format("2006-01-02"), err)
	}
	return nil
}

// UpsertWeeklyPattern writes a weekly rollup, replacing any existing row
// for the same child and week start.
func (db *DB) UpsertWeeklyPattern(ctx context.Context, pattern *models.WeeklyPattern) error {
	dailyCounts, err := encodeJSON(pattern.DailyCounts)
	if err != nil {
		return err
	}
	peakHours, err := encodeJSON(pattern.PeakHours)
	if err != nil {
		return err
	}

	query := `INSERT INTO weekly_patterns (
		child_id, week_start, daily_counts, weekly_average, consistency_pct,
		peak_hours, weekday_average, weekend_average, weekend_weekday_ratio, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (child_id, week_start) DO UPDATE SET
		daily_counts = EXCLUDED.daily_counts,
		weekly_average = EXCLUDED.weekly_average,
		consistency_pct = EXCLUDED.consistency_pct,
		peak_hours = EXCLUDED.peak_hours,
		weekday_average = EXCLUDED.weekday_average,
		weekend_average = EXCLUDED.weekend_average,
		weekend_weekday_ratio = EXCLUDED.weekend_weekday_ratio,
		updated_at = now()`

	_, err = db.conn.ExecContext(ctx, query,
		pattern.ChildID,
		pattern.WeekStart,
		dailyCounts,
		pattern.WeeklyAverage,
		pattern.ConsistencyPct,
		peakHours,
		pattern.WeekdayAverage,
		pattern.WeekendAverage,
		pattern.WeekendWeekdayRatio,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly pattern for %s/%s: %w",
			pattern.ChildID, pattern.WeekStart.Format("2006-01-02"), err)
	}
	return nil
}

// UpsertMonthlyCost writes a monthly cost rollup, replacing any existing
// row for the same child and month.
func (db *DB) UpsertMonthlyCost(ctx context.Context, record *models.MonthlyCostRecord) error {
	costTrend, err := encodeJSON(record.CostTrend)
	if err != nil {
		return err
	}

	query := `INSERT INTO monthly_cost_records (
		child_id, month, total_cost, total_changes, cost_per_change,
		efficiency_vs_target, weekend_weekday_ratio, cost_trend,
		costliest_weekday, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (child_id, month) DO UPDATE SET
		total_cost = EXCLUDED.total_cost,
		total_changes = EXCLUDED.total_changes,
		cost_per_change = EXCLUDED.cost_per_change,
		efficiency_vs_target = EXCLUDED.efficiency_vs_target,
		weekend_weekday_ratio = EXCLUDED.weekend_weekday_ratio,
		cost_trend = EXCLUDED.cost_trend,
		costliest_weekday = EXCLUDED.costliest_weekday,
		updated_at = now()`

	_, err = db.conn.ExecContext(ctx, query,
		record.ChildID,
		record.Month,
		record.TotalCost,
		record.TotalChanges,
		record.CostPerChange,
		record.EfficiencyVsTarget,
		record.WeekendWeekdayRatio,
		costTrend,
		record.CostliestWeekday,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly cost record for %s/%s: %w",
			record.ChildID, record.Month, err)
	}
	return nil
}

// ListDailySummaries returns the child's daily summaries with dates in
// [start, end), ordered by date.
func (db *DB) ListDailySummaries(ctx context.Context, childID string, start, end time.Time) ([]models.DailySummary, error) {
	query := `SELECT child_id, date, total_changes, change_times, hour_histogram,
		estimated_cost, dominant_brand, dominant_size,
		avg_gap_minutes, longest_gap_minutes, shortest_gap_minutes
		FROM daily_summaries
		WHERE child_id = ? AND date >= ? AND date < ?
		ORDER BY date`

	rows, err := db.conn.QueryContext(ctx, query, childID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	defer closeQuietly(rows)

	var summaries []models.DailySummary
	for rows.Next() {
		var (
			summary     models.DailySummary
			changeTimes string
			histogram   string
		)
		if err := rows.Scan(
			&summary.ChildID,
			&summary.Date,
			&summary.TotalChanges,
			&changeTimes,
			&histogram,
			&summary.EstimatedCost,
			&summary.DominantBrand,
			&summary.DominantSize,
			&summary.AvgGapMinutes,
			&summary.LongestGapMinutes,
			&summary.ShortestGapMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		if err := decodeJSON(changeTimes, &summary.ChangeTimes); err != nil {
			return nil, err
		}
		if err := decodeJSON(histogram, &summary.HourHistogram); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily summaries: %w", err)
	}
	return summaries, nil
}

// DeleteDailySummariesBefore removes daily summaries strictly older than
// cutoff and reports how many rows were deleted.
func (db *DB) DeleteDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM daily_summaries WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete aged daily summaries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted daily summaries: %w", err)
	}
	return deleted, nil
}
