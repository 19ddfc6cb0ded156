// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package database implements the event store over DuckDB: two append-heavy
// record sets (visits, events) plus the listing queries the aggregation
// engine reads from.
//
// Column names are fixed by the schema here; client-supplied keys never
// reach SQL. The only dynamic keys in the system (visit parameters, event
// values) are stored serialized inside a single TEXT column.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/bureaudouble/lucarne/internal/config"
	"github.com/bureaudouble/lucarne/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	// DuckDB works best with a small number of connections; writes
	// serialize on one writer anyway.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	if err := db.initialize(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("failed to close database after init error")
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("database ready")
	return db, nil
}

// initialize creates the visits and events tables if they do not exist.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS visits (
			id BIGINT PRIMARY KEY,
			referrer TEXT,
			ip TEXT,
			user_agent TEXT,
			hostname TEXT,
			"path" TEXT,
			latitude DOUBLE,
			longitude DOUBLE,
			country_code TEXT,
			region_name TEXT,
			city_name TEXT,
			parameters TEXT,
			screen_width INTEGER,
			screen_height INTEGER,
			load_time DOUBLE,
			visit_duration DOUBLE,
			session_id BIGINT NOT NULL,
			"ignore" BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGINT NOT NULL,
			visit_id BIGINT NOT NULL,
			category TEXT NOT NULL,
			action TEXT NOT NULL,
			"value" TEXT,
			label TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_session ON visits (session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_category_action ON events (category, action)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Ping verifies the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("database close: %w", err)
	}
	return nil
}
