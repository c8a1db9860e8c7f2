// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package config loads and validates server configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the AdmitLens server.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	MetricsStore MetricsStoreConfig `koanf:"metrics_store"`
	Ingest       IngestConfig       `koanf:"ingest"`
	Aggregate    AggregateConfig    `koanf:"aggregate"`
	Summarizer   SummarizerConfig   `koanf:"summarizer"`
	Security     SecurityConfig     `koanf:"security"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB event store settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// MetricsStoreConfig holds Badger settings for the per-session
// engagement metrics rows.
type MetricsStoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// IngestConfig bounds what a single tracking batch may carry.
type IngestConfig struct {
	MaxBatchEvents int   `koanf:"max_batch_events"`
	MaxBodyBytes   int64 `koanf:"max_body_bytes"`
}

// AggregateConfig holds read-side aggregation settings.
type AggregateConfig struct {
	TopSections int `koanf:"top_sections"`

	// SnapshotCacheTTL bounds how stale a cached dashboard snapshot
	// may be. Zero disables snapshot caching.
	SnapshotCacheTTL time.Duration `koanf:"snapshot_cache_ttl"`
}

// SummarizerConfig configures the external narrative summarizer
// collaborator. Disabled by default; the aggregator's deterministic
// fallback narrative is used when disabled or unreachable.
type SummarizerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestsPerMin int           `koanf:"requests_per_min"`
	BreakerMaxFail uint32        `koanf:"breaker_max_failures"`
	BreakerCooloff time.Duration `koanf:"breaker_cooloff"`
}

// SecurityConfig holds authentication and abuse-protection settings.
// The /track ingestion endpoint is always public (visitors are not
// authenticated); these settings guard the dashboard read side.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // jwt or none
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for internal consistency.
// It is called by LoadWithKoanf after unmarshaling.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if !c.MetricsStore.InMemory && c.MetricsStore.Path == "" {
		return fmt.Errorf("metrics_store.path must not be empty unless in_memory is set")
	}
	if c.Ingest.MaxBatchEvents < 1 {
		return fmt.Errorf("ingest.max_batch_events must be positive, got %d", c.Ingest.MaxBatchEvents)
	}
	if c.Ingest.MaxBodyBytes < 1024 {
		return fmt.Errorf("ingest.max_body_bytes must be at least 1024, got %d", c.Ingest.MaxBodyBytes)
	}
	if c.Aggregate.TopSections < 1 {
		return fmt.Errorf("aggregate.top_sections must be positive, got %d", c.Aggregate.TopSections)
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in jwt mode")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required in jwt mode")
		}
		if len(c.Security.AdminPassword) < 8 {
			return fmt.Errorf("security.admin_password must be at least 8 characters")
		}
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("security.auth_mode=none is not permitted in production")
		}
	default:
		return fmt.Errorf("security.auth_mode must be jwt or none, got %q", c.Security.AuthMode)
	}

	if c.Summarizer.Enabled && c.Summarizer.URL == "" {
		return fmt.Errorf("summarizer.url is required when summarizer is enabled")
	}

	return nil
}
