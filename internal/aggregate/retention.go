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

	"github.com/nestlog/nestlog/internal/metrics"
)

// DefaultRetentionDays is the horizon after which daily summaries are
// deleted. Weekly patterns and monthly cost records are never swept.
const DefaultRetentionDays = 730

// RetentionSweeper deletes daily summaries older than the retention
// horizon. Sweep failures propagate to the caller: a partial sweep must be
// visible to the scheduling trigger so it can retry.
type RetentionSweeper struct {
	store  SummaryStore
	loc    *time.Location
	logger zerolog.Logger
}

// NewRetentionSweeper creates a retention sweeper. loc defines the
// calendar used for the cutoff date; nil defaults to UTC.
func NewRetentionSweeper(store SummaryStore, loc *time.Location, logger *zerolog.Logger) *RetentionSweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &RetentionSweeper{
		store:  store,
		loc:    loc,
		logger: logger.With().Str("component", "retention-sweeper").Logger(),
	}
}

// Sweep deletes all daily summaries dated strictly before
// today − retentionDays and returns the number of rows removed.
// Non-positive retentionDays falls back to DefaultRetentionDays.
func (s *RetentionSweeper) Sweep(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	now := time.Now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	cutoff := today.AddDate(0, 0, -retentionDays)

	deleted, err := s.store.DeleteDailySummariesBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("retention sweep before %s: %w", cutoff.Format("2006-01-02"), err)
	}

	metrics.RetentionDeleted.Add(float64(deleted))
	s.logger.Info().
		Str("cutoff", cutoff.Format("2006-01-02")).
		Int64("deleted", deleted).
		Msg("Retention sweep completed")

	return deleted, nil
}
