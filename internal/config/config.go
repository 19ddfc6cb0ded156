// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package config defines the Lucarne configuration model and loads it with
// Koanf v2 from layered sources: struct defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Lucarne server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Geo      GeoConfig      `koanf:"geo"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings for the event store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory store.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SessionConfig controls session assignment.
type SessionConfig struct {
	// Timeout is the inactivity window after which a returning IP starts a
	// new session.
	Timeout time.Duration `koanf:"timeout"`
	// PruneInterval is how often expired entries are removed from the
	// in-memory session map.
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// GeoConfig controls the external IP-geolocation resolver.
type GeoConfig struct {
	Enabled bool `koanf:"enabled"`
	// EndpointURL is the lookup endpoint; the IP is appended as a path
	// segment (ip-api.com JSON shape).
	EndpointURL string `koanf:"endpoint_url"`
	// Timeout bounds a single lookup so a slow provider cannot stall
	// ingestion.
	Timeout time.Duration `koanf:"timeout"`
	// RatePerSecond and Burst throttle outbound lookups. ip-api.com's free
	// tier allows 45 requests per minute.
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`
}

// IngestConfig controls which records enter aggregation.
type IngestConfig struct {
	// ExcludedHostSuffixes drops visits whose hostname ends with any entry
	// (development/staging deployments).
	ExcludedHostSuffixes []string `koanf:"excluded_host_suffixes"`
	// ExcludedHostSubstrings drops visits whose hostname contains any entry.
	ExcludedHostSubstrings []string `koanf:"excluded_host_substrings"`
	// NoiseParameterKeys are query-parameter keys excluded from the
	// parameters breakdown (tracking-only noise such as fbclid).
	NoiseParameterKeys []string `koanf:"noise_parameter_keys"`
}

// SecurityConfig holds CORS and rate-limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/lucarne.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Session: SessionConfig{
			Timeout:       30 * time.Minute,
			PruneInterval: 10 * time.Minute,
		},
		Geo: GeoConfig{
			Enabled:       false,
			EndpointURL:   "http://ip-api.com/json",
			Timeout:       2 * time.Second,
			RatePerSecond: 0.75,
			Burst:         5,
		},
		Ingest: IngestConfig{
			ExcludedHostSuffixes:   []string{".deno.dev"},
			ExcludedHostSubstrings: []string{"localhost"},
			NoiseParameterKeys:     []string{"fbclid"},
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks configuration invariants after loading.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session.timeout must be positive, got %s", c.Session.Timeout)
	}
	if c.Session.PruneInterval <= 0 {
		return fmt.Errorf("session.prune_interval must be positive, got %s", c.Session.PruneInterval)
	}
	if c.Geo.Enabled {
		if c.Geo.EndpointURL == "" {
			return fmt.Errorf("geo.endpoint_url must be set when geo.enabled is true")
		}
		if c.Geo.Timeout <= 0 {
			return fmt.Errorf("geo.timeout must be positive, got %s", c.Geo.Timeout)
		}
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitRequests <= 0 {
			return fmt.Errorf("security.rate_limit_requests must be positive, got %d", c.Security.RateLimitRequests)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}
