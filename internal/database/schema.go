// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package database

import "fmt"

// initSchema creates all tables and indexes if they do not exist.
//
// Array-valued summary columns (histograms, per-day counts, trends) are
// stored as JSON text. DuckDB can index into them when needed and the Go
// side round-trips them through a single codec.
func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS change_events (
			id VARCHAR PRIMARY KEY,
			child_id VARCHAR NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			change_type VARCHAR NOT NULL,
			cost DOUBLE NOT NULL DEFAULT 0,
			size VARCHAR NOT NULL DEFAULT '',
			brand VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_child_ts
			ON change_events (child_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_summaries (
			child_id VARCHAR NOT NULL,
			date DATE NOT NULL,
			total_changes INTEGER NOT NULL,
			change_times VARCHAR NOT NULL,
			hour_histogram VARCHAR NOT NULL,
			estimated_cost DOUBLE NOT NULL,
			dominant_brand VARCHAR NOT NULL,
			dominant_size VARCHAR NOT NULL,
			avg_gap_minutes DOUBLE NOT NULL,
			longest_gap_minutes DOUBLE NOT NULL,
			shortest_gap_minutes DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (child_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_summaries_date
			ON daily_summaries (date)`,

		`CREATE TABLE IF NOT EXISTS weekly_patterns (
			child_id VARCHAR NOT NULL,
			week_start DATE NOT NULL,
			daily_counts VARCHAR NOT NULL,
			weekly_average DOUBLE NOT NULL,
			consistency_pct DOUBLE NOT NULL,
			peak_hours VARCHAR NOT NULL,
			weekday_average DOUBLE NOT NULL,
			weekend_average DOUBLE NOT NULL,
			weekend_weekday_ratio DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (child_id, week_start)
		)`,

		`CREATE TABLE IF NOT EXISTS monthly_cost_records (
			child_id VARCHAR NOT NULL,
			month VARCHAR NOT NULL,
			total_cost DOUBLE NOT NULL,
			total_changes INTEGER NOT NULL,
			cost_per_change DOUBLE NOT NULL,
			efficiency_vs_target DOUBLE NOT NULL,
			weekend_weekday_ratio DOUBLE NOT NULL,
			cost_trend VARCHAR NOT NULL,
			costliest_weekday VARCHAR NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (child_id, month)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
