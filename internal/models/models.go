// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package models defines the core data types shared across the Nestlog
// aggregation subsystem: raw change events, daily summaries, weekly patterns,
// and monthly cost records.
package models

import "time"

// Change event types. Gap statistics are computed per type, so these values
// must stay stable across releases.
const (
	ChangeTypeWet   = "wet"
	ChangeTypeDirty = "dirty"
	ChangeTypeMixed = "mixed"
)

// ChangeEvent is a single raw diaper-change event as recorded by the
// event source. Events for a given child and type are expected to be
// returned in non-decreasing timestamp order.
type ChangeEvent struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Cost      float64   `json:"cost,omitempty"`
	Size      string    `json:"size,omitempty"`
	Brand     string    `json:"brand,omitempty"`
}

// DailySummary is the per-child, per-calendar-day rollup produced by the
// daily aggregation job. One row exists per (child, date) pair; re-running
// the job for the same day overwrites the row.
type DailySummary struct {
	ChildID string    `json:"child_id"`
	Date    time.Time `json:"date"`

	// Counts and timing
	TotalChanges  int         `json:"total_changes"`
	ChangeTimes   []time.Time `json:"change_times"`
	HourHistogram [24]int     `json:"hour_histogram"`

	// Cost and product breakdown
	EstimatedCost float64 `json:"estimated_cost"`
	DominantBrand string  `json:"dominant_brand,omitempty"`
	DominantSize  string  `json:"dominant_size,omitempty"`

	// Inter-change gap statistics in minutes, computed over consecutive
	// same-type events only. Zero when fewer than two events of any type
	// occurred.
	AvgGapMinutes      float64 `json:"avg_gap_minutes"`
	LongestGapMinutes  float64 `json:"longest_gap_minutes"`
	ShortestGapMinutes float64 `json:"shortest_gap_minutes"`
}

// WeeklyPattern is the per-child rollup of seven consecutive daily summaries
// starting at WeekStart (a Monday). One row exists per (child, week_start).
type WeeklyPattern struct {
	ChildID   string    `json:"child_id"`
	WeekStart time.Time `json:"week_start"`

	// DailyCounts holds the change count per day, index 0 = Monday.
	DailyCounts [7]int `json:"daily_counts"`

	// WeeklyAverage is sum(DailyCounts)/7, stored unrounded.
	WeeklyAverage float64 `json:"weekly_average"`

	// ConsistencyPct is 100 for a perfectly uniform week and decreases
	// monotonically as daily counts spread out.
	ConsistencyPct float64 `json:"consistency_pct"`

	// PeakHours is the elementwise sum of the seven daily hour histograms.
	PeakHours [24]int `json:"peak_hours"`

	WeekdayAverage      float64 `json:"weekday_average"`
	WeekendAverage      float64 `json:"weekend_average"`
	WeekendWeekdayRatio float64 `json:"weekend_weekday_ratio"`
}

// MonthlyCostRecord is the per-child cost-efficiency rollup for one calendar
// month, labelled "YYYY-MM". One row exists per (child, month).
type MonthlyCostRecord struct {
	ChildID string `json:"child_id"`
	Month   string `json:"month"`

	TotalCost     float64 `json:"total_cost"`
	TotalChanges  int     `json:"total_changes"`
	CostPerChange float64 `json:"cost_per_change"`

	// EfficiencyVsTarget compares cost-per-change against the configured
	// target, capped at 100. A month with no spend scores 100.
	EfficiencyVsTarget float64 `json:"efficiency_vs_target"`

	WeekendWeekdayRatio float64 `json:"weekend_weekday_ratio"`

	// CostTrend holds the daily cost for the last seven calendar days of
	// the month, oldest first; days without a summary contribute zero.
	CostTrend [7]float64 `json:"cost_trend"`

	// CostliestWeekday is the weekday label with the highest summed cost.
	// Ties resolve to the earliest label in Monday-first order.
	CostliestWeekday string `json:"costliest_weekday"`
}
