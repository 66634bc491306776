// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nestlog/nestlog/internal/models"
)

// fakeEventSource serves canned events filtered by child and time range.
type fakeEventSource struct {
	events []models.ChangeEvent
	err    error
}

func (f *fakeEventSource) ListEvents(_ context.Context, childID string, start, end time.Time) ([]models.ChangeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ChangeEvent
	for _, event := range f.events {
		if event.ChildID != childID {
			continue
		}
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// fakeSummaryStore is an in-memory SummaryStore keyed the same way as the
// database tables.
type fakeSummaryStore struct {
	mu sync.Mutex

	daily   map[string]models.DailySummary
	weekly  map[string]models.WeeklyPattern
	monthly map[string]models.MonthlyCostRecord

	children []string

	upsertDailyErr map[string]error // per child
	deleteErr      error
	listErr        error
}

func newFakeSummaryStore() *fakeSummaryStore {
	return &fakeSummaryStore{
		daily:          make(map[string]models.DailySummary),
		weekly:         make(map[string]models.WeeklyPattern),
		monthly:        make(map[string]models.MonthlyCostRecord),
		upsertDailyErr: make(map[string]error),
	}
}

func dailyKey(childID string, date time.Time) string {
	return childID + "|" + date.Format("2006-01-02")
}

func (f *fakeSummaryStore) UpsertDailySummary(_ context.Context, summary *models.DailySummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertDailyErr[summary.ChildID]; err != nil {
		return err
	}
	f.daily[dailyKey(summary.ChildID, summary.Date)] = *summary
	return nil
}

func (f *fakeSummaryStore) UpsertWeeklyPattern(_ context.Context, pattern *models.WeeklyPattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekly[pattern.ChildID+"|"+pattern.WeekStart.Format("2006-01-02")] = *pattern
	return nil
}

func (f *fakeSummaryStore) UpsertMonthlyCost(_ context.Context, record *models.MonthlyCostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthly[record.ChildID+"|"+record.Month] = *record
	return nil
}

func (f *fakeSummaryStore) ListDailySummaries(_ context.Context, childID string, start, end time.Time) ([]models.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.DailySummary
	for _, summary := range f.daily {
		if summary.ChildID != childID {
			continue
		}
		if summary.Date.Before(start) || !summary.Date.Before(end) {
			continue
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeSummaryStore) DeleteDailySummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var deleted int64
	for key, summary := range f.daily {
		if summary.Date.Before(cutoff) {
			delete(f.daily, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSummaryStore) ActiveChildren(_ context.Context, _, _ time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.children...), nil
}
