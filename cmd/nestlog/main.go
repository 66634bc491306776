// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package main is the aggregation job runner for Nestlog.
//
// Nestlog tracks diaper changes and diapering costs for one or more
// children and rolls raw change events up into daily, weekly, and monthly
// analytics tables. The runner owns no clock: an external trigger (cron, a
// systemd timer, a container orchestrator) invokes it with the job to run
// and it exits when the job completes.
//
// # Usage
//
//	nestlog -job daily      # aggregate yesterday for all active children
//	nestlog -job weekly     # aggregate last week, if yesterday closed one
//	nestlog -job monthly    # aggregate the prior calendar month
//	nestlog -job retention  # delete daily summaries past the horizon
//	nestlog -job all        # daily, weekly-if-due, then retention
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
// See internal/config for the full key list.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the run context. Aggregation jobs observe the
// context between children, so an interrupted run stops cleanly and can be
// re-run: every write is an idempotent upsert.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nestlog/nestlog/internal/aggregate"
	"github.com/nestlog/nestlog/internal/config"
	"github.com/nestlog/nestlog/internal/database"
	"github.com/nestlog/nestlog/internal/logging"
	"github.com/nestlog/nestlog/internal/scheduler"
)

func main() {
	job := flag.String("job", "all", "job to run: daily, weekly, monthly, retention, or all")
	flag.Parse()

	if err := run(*job); err != nil {
		fmt.Fprintf(os.Stderr, "nestlog: %v\n", err)
		os.Exit(1)
	}
}

func run(job string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.Logger()
	logger := &log

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()
	daily := aggregate.NewDailyAggregator(db, db, loc, logger)
	weekly := aggregate.NewWeeklyPatternCalculator(db, loc, logger)
	monthly := aggregate.NewMonthlyCostAnalyzer(db, loc, cfg.Aggregation.TargetCostPerChange, logger)
	sweeper := aggregate.NewRetentionSweeper(db, loc, logger)

	driver := scheduler.NewDriver(db, daily, weekly, monthly, sweeper, logger, scheduler.Config{
		Timezone:      loc,
		RetentionDays: cfg.Aggregation.RetentionDays,
	})

	switch job {
	case "daily":
		return driver.RunDaily(ctx)
	case "weekly":
		return driver.RunWeeklyIfDue(ctx)
	case "monthly":
		return driver.RunMonthly(ctx)
	case "retention":
		return driver.RunRetention(ctx)
	case "all":
		if err := driver.RunDaily(ctx); err != nil {
			return err
		}
		if err := driver.RunWeeklyIfDue(ctx); err != nil {
			return err
		}
		return driver.RunRetention(ctx)
	default:
		return fmt.Errorf("unknown job %q (want daily, weekly, monthly, retention, or all)", job)
	}
}
