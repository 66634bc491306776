// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

// Package config loads and validates the Nestlog configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Cache       CacheConfig       `koanf:"cache"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// DatabaseConfig holds DuckDB connection settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = use runtime.NumCPU()
}

// CacheConfig holds analytics cache settings.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	MaxEntries int           `koanf:"max_entries" validate:"gt=0"`
}

// AggregationConfig holds scheduled-aggregation settings.
type AggregationConfig struct {
	// Timezone is the IANA zone used for day, week, and month boundaries.
	Timezone string `koanf:"timezone" validate:"required"`

	// RetentionDays is how long daily summaries are kept.
	RetentionDays int `koanf:"retention_days" validate:"gt=0"`

	// TargetCostPerChange is the per-change cost target the efficiency
	// score is measured against.
	TargetCostPerChange float64 `koanf:"target_cost_per_change" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Tag validation cannot check that the zone actually resolves.
	if _, err := time.LoadLocation(c.Aggregation.Timezone); err != nil {
		return fmt.Errorf("invalid aggregation timezone %q: %w", c.Aggregation.Timezone, err)
	}
	return nil
}

// Location resolves the configured aggregation timezone. Call Validate
// first; an unresolvable zone falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Aggregation.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
