// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Lucarne collects page visits and interaction events from a small client
// beacon, stores them in DuckDB, and serves an aggregate analytics report.
//
// # Configuration
//
// Configuration layers, highest priority last: built-in defaults, an
// optional YAML file (CONFIG_PATH, or the first of ./config.yaml,
// ./config.yml, /etc/lucarne/config.yaml, /etc/lucarne/config.yml), then
// environment variables such as HTTP_PORT, DUCKDB_PATH and SESSION_TIMEOUT.
//
//	docker run -d \
//	  -e DUCKDB_PATH=/data/lucarne.duckdb \
//	  -e GEO_ENABLED=true \
//	  -p 8787:8787 \
//	  ghcr.io/bureaudouble/lucarne
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/bureaudouble/lucarne/internal/analytics"
	"github.com/bureaudouble/lucarne/internal/api"
	"github.com/bureaudouble/lucarne/internal/config"
	"github.com/bureaudouble/lucarne/internal/database"
	"github.com/bureaudouble/lucarne/internal/geoip"
	"github.com/bureaudouble/lucarne/internal/logging"
	"github.com/bureaudouble/lucarne/internal/server"
	"github.com/bureaudouble/lucarne/internal/session"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("geo_enabled", cfg.Geo.Enabled).
		Msg("Starting Lucarne")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	var resolver geoip.Resolver
	if httpResolver := geoip.NewHTTPResolver(&cfg.Geo); httpResolver != nil {
		resolver = httpResolver
		logging.Info().Str("endpoint", cfg.Geo.EndpointURL).Msg("Geolocation resolver enabled")
	} else {
		logging.Info().Msg("Geolocation disabled")
	}

	tracker := session.NewTracker(cfg.Session.Timeout, time.Now)
	engine := analytics.NewEngine(analytics.Config{
		ExcludedHostSuffixes:   cfg.Ingest.ExcludedHostSuffixes,
		ExcludedHostSubstrings: cfg.Ingest.ExcludedHostSubstrings,
		NoiseParameterKeys:     cfg.Ingest.NoiseParameterKeys,
	})

	handler := api.NewHandler(db, engine, tracker, resolver)
	router := api.NewRouter(handler, &cfg.Security)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := suture.New("lucarne", suture.Spec{
		EventHook: func(ev suture.Event) {
			logging.Warn().Interface("event", ev.Map()).Msg("supervisor event")
		},
		Timeout: cfg.Server.ShutdownTimeout,
	})
	root.Add(server.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))
	root.Add(session.NewPrunerService(tracker, cfg.Session.PruneInterval))
	logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server and session pruner supervised")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := root.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	// Drain until the supervisor finishes stopping its services.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Stopped")
}
