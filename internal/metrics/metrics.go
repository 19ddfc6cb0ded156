// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package metrics defines the Prometheus instrumentation for Lucarne,
// exposed at /metrics: HTTP request latency and throughput, ingestion
// counters, geolocation lookup outcomes, and circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, endpoint, status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration observes request latency by method and endpoint.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// HTTPRequestsInFlight gauges currently active requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Active HTTP requests",
		},
	)

	// IngestTotal counts accepted ingestion payloads by kind
	// (visit, exit, event).
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_total",
			Help: "Accepted ingestion payloads",
		},
		[]string{"kind"},
	)

	// IngestErrorsTotal counts failed ingestion payloads by kind and error
	// type (validation, database).
	IngestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Failed ingestion payloads",
		},
		[]string{"kind", "error_type"},
	)

	// ReportDuration observes aggregate report computation time, storage
	// read included.
	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_duration_seconds",
			Help:    "Aggregate report computation time",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5},
		},
	)

	// GeoLookupsTotal counts geolocation lookups by outcome
	// (hit, miss, error, rejected).
	GeoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_lookups_total",
			Help: "IP geolocation lookups by outcome",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerState reports breaker state by name:
	// 0=closed, 1=open, 2=half-open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// SessionMapSize gauges tracked IPs in the session map.
	SessionMapSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_map_size",
			Help: "IPs currently tracked by session assignment",
		},
	)
)

// TrackActiveRequest adjusts the in-flight gauge around a request.
func TrackActiveRequest(start bool) {
	if start {
		HTTPRequestsInFlight.Inc()
	} else {
		HTTPRequestsInFlight.Dec()
	}
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
