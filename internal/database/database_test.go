// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestlog/nestlog/internal/config"
	"github.com/nestlog/nestlog/internal/models"
)

// setupTestDB creates a new in-memory test database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	logger := zerolog.Nop()
	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}, &logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

func TestInsertAndListEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	events := []models.ChangeEvent{
		{ID: "e2", ChildID: "c1", Timestamp: base.Add(2 * time.Hour), Type: models.ChangeTypeDirty, Cost: 0.30, Size: "3", Brand: "acme"},
		{ID: "e1", ChildID: "c1", Timestamp: base, Type: models.ChangeTypeWet, Cost: 0.25, Size: "3", Brand: "acme"},
		{ID: "e3", ChildID: "c2", Timestamp: base.Add(time.Hour), Type: models.ChangeTypeWet, Cost: 0.25, Size: "2", Brand: "other"},
	}
	for _, event := range events {
		if err := db.InsertChangeEvent(ctx, &event); err != nil {
			t.Fatalf("InsertChangeEvent failed: %v", err)
		}
	}

	got, err := db.ListEvents(ctx, "c1", base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events for c1, got %d", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e2" {
		t.Errorf("Expected chronological order e1, e2; got %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Brand != "acme" || got[0].Cost != 0.25 {
		t.Errorf("Event fields did not round-trip: %+v", got[0])
	}
}

func TestInsertChangeEventDuplicateIgnored(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := models.ChangeEvent{
		ID:        "e1",
		ChildID:   "c1",
		Timestamp: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		Type:      models.ChangeTypeWet,
	}
	for i := 0; i < 2; i++ {
		if err := db.InsertChangeEvent(ctx, &event); err != nil {
			t.Fatalf("InsertChangeEvent run %d failed: %v", i, err)
		}
	}

	got, err := db.ListEvents(ctx, "c1",
		event.Timestamp.AddDate(0, 0, -1), event.Timestamp.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected duplicate insert to be ignored, got %d rows", len(got))
	}
}

func TestActiveChildren(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seed := []models.ChangeEvent{
		{ID: "e1", ChildID: "c1", Timestamp: day.Add(8 * time.Hour), Type: models.ChangeTypeWet},
		{ID: "e2", ChildID: "c1", Timestamp: day.Add(9 * time.Hour), Type: models.ChangeTypeWet},
		{ID: "e3", ChildID: "c2", Timestamp: day.Add(10 * time.Hour), Type: models.ChangeTypeDirty},
		{ID: "e4", ChildID: "c3", Timestamp: day.AddDate(0, 0, 2), Type: models.ChangeTypeWet},
	}
	for _, event := range seed {
		if err := db.InsertChangeEvent(ctx, &event); err != nil {
			t.Fatalf("InsertChangeEvent failed: %v", err)
		}
	}

	children, err := db.ActiveChildren(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ActiveChildren failed: %v", err)
	}
	if len(children) != 2 || children[0] != "c1" || children[1] != "c2" {
		t.Errorf("Expected [c1 c2], got %v", children)
	}
}

func TestUpsertDailySummaryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	summary := models.DailySummary{
		ChildID:      "c1",
		Date:         date,
		TotalChanges: 3,
		ChangeTimes: []time.Time{
			date.Add(8 * time.Hour),
			date.Add(12 * time.Hour),
			date.Add(18 * time.Hour),
		},
		EstimatedCost:      0.75,
		DominantBrand:      "acme",
		DominantSize:       "3",
		AvgGapMinutes:      300,
		LongestGapMinutes:  360,
		ShortestGapMinutes: 240,
	}
	summary.HourHistogram[8] = 1
	summary.HourHistogram[12] = 1
	summary.HourHistogram[18] = 1

	if err := db.UpsertDailySummary(ctx, &summary); err != nil {
		t.Fatalf("UpsertDailySummary failed: %v", err)
	}

	// Second write for the same day must replace, not duplicate.
	summary.TotalChanges = 4
	summary.EstimatedCost = 1.00
	if err := db.UpsertDailySummary(ctx, &summary); err != nil {
		t.Fatalf("UpsertDailySummary rewrite failed: %v", err)
	}

	got, err := db.ListDailySummaries(ctx, "c1", date, date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListDailySummaries failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected a single row after upsert, got %d", len(got))
	}
	if got[0].TotalChanges != 4 || got[0].EstimatedCost != 1.00 {
		t.Errorf("Expected updated values, got %+v", got[0])
	}
	if got[0].HourHistogram[8] != 1 || got[0].HourHistogram[12] != 1 {
		t.Errorf("Hour histogram did not round-trip: %v", got[0].HourHistogram)
	}
	if len(got[0].ChangeTimes) != 3 {
		t.Errorf("Expected 3 change times, got %d", len(got[0].ChangeTimes))
	}
}

func TestUpsertWeeklyPattern(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pattern := models.WeeklyPattern{
		ChildID:             "c1",
		WeekStart:           time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DailyCounts:         [7]int{8, 9, 7, 8, 10, 6, 9},
		WeeklyAverage:       57.0 / 7.0,
		ConsistencyPct:      84.7,
		WeekdayAverage:      8.4,
		WeekendAverage:      7.5,
		WeekendWeekdayRatio: 89.3,
	}
	for i := 0; i < 2; i++ {
		if err := db.UpsertWeeklyPattern(ctx, &pattern); err != nil {
			t.Fatalf("UpsertWeeklyPattern run %d failed: %v", i, err)
		}
	}

	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weekly_patterns WHERE child_id = ?`, "c1",
	).Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single weekly row after upsert, got %d", count)
	}
}

func TestUpsertMonthlyCost(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	record := models.MonthlyCostRecord{
		ChildID:             "c1",
		Month:               "2026-01",
		TotalCost:           20.00,
		TotalChanges:        100,
		CostPerChange:       0.20,
		EfficiencyVsTarget:  100,
		WeekendWeekdayRatio: 95,
		CostTrend:           [7]float64{1, 2, 3, 4, 5, 6, 7},
		CostliestWeekday:    "Wednesday",
	}
	for i := 0; i < 2; i++ {
		if err := db.UpsertMonthlyCost(ctx, &record); err != nil {
			t.Fatalf("UpsertMonthlyCost run %d failed: %v", i, err)
		}
	}

	var trend, weekday string
	if err := db.conn.QueryRowContext(ctx,
		`SELECT cost_trend, costliest_weekday FROM monthly_cost_records
		WHERE child_id = ? AND month = ?`, "c1", "2026-01",
	).Scan(&trend, &weekday); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if weekday != "Wednesday" {
		t.Errorf("Expected costliest weekday Wednesday, got %q", weekday)
	}
	var decoded [7]float64
	if err := decodeJSON(trend, &decoded); err != nil {
		t.Fatalf("Trend column did not decode: %v", err)
	}
	if decoded != record.CostTrend {
		t.Errorf("Cost trend did not round-trip: %v", decoded)
	}
}

func TestDeleteDailySummariesBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cutoff := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	for _, date := range []time.Time{
		cutoff.AddDate(0, 0, -2),
		cutoff.AddDate(0, 0, -1),
		cutoff, // on the cutoff: must survive
		cutoff.AddDate(0, 0, 1),
	} {
		summary := models.DailySummary{ChildID: "c1", Date: date, ChangeTimes: []time.Time{}}
		if err := db.UpsertDailySummary(ctx, &summary); err != nil {
			t.Fatalf("UpsertDailySummary failed: %v", err)
		}
	}

	deleted, err := db.DeleteDailySummariesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteDailySummariesBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 rows deleted, got %d", deleted)
	}

	remaining, err := db.ListDailySummaries(ctx, "c1", cutoff.AddDate(0, 0, -10), cutoff.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("ListDailySummaries failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("Expected 2 surviving rows, got %d", len(remaining))
	}
}
