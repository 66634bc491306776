// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/data/nestlog.duckdb" {
		t.Errorf("Unexpected default database path: %s", cfg.Database.Path)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected default cache TTL 5m, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 1000 {
		t.Errorf("Expected default cache max entries 1000, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Aggregation.RetentionDays != 730 {
		t.Errorf("Expected default retention 730 days, got %d", cfg.Aggregation.RetentionDays)
	}
	if cfg.Aggregation.TargetCostPerChange != 0.20 {
		t.Errorf("Expected default target cost 0.20, got %v", cfg.Aggregation.TargetCostPerChange)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CACHE_MAX_ENTRIES", "250")
	t.Setenv("AGGREGATION_TIMEZONE", "America/Toronto")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.MaxEntries != 250 {
		t.Errorf("Expected env override max entries 250, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Aggregation.Timezone != "America/Toronto" {
		t.Errorf("Expected env override timezone, got %s", cfg.Aggregation.Timezone)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected env override log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  path: /tmp/test.duckdb
cache:
  ttl: 90s
aggregation:
  retention_days: 365
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("Expected file override database path, got %s", cfg.Database.Path)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Expected file override TTL 90s, got %v", cfg.Cache.TTL)
	}
	if cfg.Aggregation.RetentionDays != 365 {
		t.Errorf("Expected file override retention 365, got %d", cfg.Aggregation.RetentionDays)
	}
	// Untouched keys keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero max entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"negative retention", func(c *Config) { c.Aggregation.RetentionDays = -1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad timezone", func(c *Config) { c.Aggregation.Timezone = "Mars/Olympus" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := defaultConfig()
	cfg.Aggregation.Timezone = "Not/AZone"
	if loc := cfg.Location(); loc != time.UTC {
		t.Errorf("Expected UTC fallback, got %v", loc)
	}
}
