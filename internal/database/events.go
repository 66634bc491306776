// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nestlog/nestlog/internal/models"
)

// InsertChangeEvent records a single diaper change. Duplicate IDs are
// ignored so replayed client submissions do not double-count.
func (db *DB) InsertChangeEvent(ctx context.Context, event *models.ChangeEvent) error {
	query := `INSERT INTO change_events (
		id, child_id, timestamp, change_type, cost, size, brand
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	_, err := db.conn.ExecContext(ctx, query,
		event.ID,
		event.ChildID,
		event.Timestamp.UTC(),
		event.Type,
		event.Cost,
		event.Size,
		event.Brand,
	)
	if err != nil {
		return fmt.Errorf("failed to insert change event %s: %w", event.ID, err)
	}
	return nil
}

// ListEvents returns the child's change events with timestamps in
// [start, end), ordered chronologically.
func (db *DB) ListEvents(ctx context.Context, childID string, start, end time.Time) ([]models.ChangeEvent, error) {
	query := `SELECT id, child_id, timestamp, change_type, cost, size, brand
		FROM change_events
		WHERE child_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp`

	rows, err := db.conn.QueryContext(ctx, query, childID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list change events: %w", err)
	}
	defer closeQuietly(rows)

	var events []models.ChangeEvent
	for rows.Next() {
		var event models.ChangeEvent
		if err := rows.Scan(
			&event.ID,
			&event.ChildID,
			&event.Timestamp,
			&event.Type,
			&event.Cost,
			&event.Size,
			&event.Brand,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate change events: %w", err)
	}
	return events, nil
}

// ActiveChildren returns the distinct child IDs with at least one change
// event in [start, end).
func (db *DB) ActiveChildren(ctx context.Context, start, end time.Time) ([]string, error) {
	query := `SELECT DISTINCT child_id FROM change_events
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY child_id`

	rows, err := db.conn.QueryContext(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list active children: %w", err)
	}
	defer closeQuietly(rows)

	var children []string
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		children = append(children, childID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active children: %w", err)
	}
	return children, nil
}
