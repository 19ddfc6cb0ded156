// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureaudouble/lucarne/internal/config"
	"github.com/bureaudouble/lucarne/internal/middleware"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler  *Handler
	security *config.SecurityConfig
}

// NewRouter creates a router for the given handler and security settings.
func NewRouter(handler *Handler, security *config.SecurityConfig) *Router {
	return &Router{
		handler:  handler,
		security: security,
	}
}

// Setup configures all HTTP routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.rateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/log/visit", rt.handler.LogVisit)
		r.Post("/log/quit", rt.handler.LogQuit)
		r.Post("/log/event", rt.handler.LogEvent)
		r.Get("/report", rt.handler.Report)
		r.Get("/health", rt.handler.Health)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w).Error(http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	return r
}

// rateLimit returns the per-IP ingestion rate limiter, or a no-op when
// disabled.
func (rt *Router) rateLimit() func(http.Handler) http.Handler {
	if rt.security.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByRealIP(
		rt.security.RateLimitRequests,
		rt.security.RateLimitWindow,
	)
}
