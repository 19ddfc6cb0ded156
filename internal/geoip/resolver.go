// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package geoip resolves IP addresses to coarse locations through an
// external HTTP provider.
//
// The resolver is a best-effort enrichment: lookups are rate limited,
// bounded by a timeout, and guarded by a circuit breaker so a slow or dead
// provider cannot stall visit ingestion. Every failure degrades to a nil
// location.
package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bureaudouble/lucarne/internal/config"
	"github.com/bureaudouble/lucarne/internal/logging"
	"github.com/bureaudouble/lucarne/internal/metrics"
)

// Location is the geolocation enrichment attached to a visit.
type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	CityName    string  `json:"city"`
}

// Resolver maps an IP address to a Location. Implementations return
// (nil, nil) when the address cannot be located; a non-nil error means the
// provider itself failed. Callers treat both as "no enrichment".
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// HTTPResolver queries an ip-api.com-shaped JSON endpoint.
type HTTPResolver struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*Location]
}

const breakerName = "geoip"

// NewHTTPResolver builds a resolver from config. Returns nil when the
// feature is disabled; a nil *HTTPResolver is a valid no-op Resolver.
func NewHTTPResolver(cfg *config.GeoConfig) *HTTPResolver {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*Location](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Statistical significance first: open at >=60% failures
			// over at least 10 requests.
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &HTTPResolver{
		endpoint: cfg.EndpointURL,
		timeout:  cfg.Timeout,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker:  breaker,
	}
}

// Resolve looks up ip. It never blocks past the configured timeout: when the
// rate limiter has no token available right now, the lookup is skipped
// rather than queued behind ingestion.
func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (*Location, error) {
	if r == nil {
		return nil, nil
	}
	if !r.limiter.Allow() {
		metrics.GeoLookupsTotal.WithLabelValues("rejected").Inc()
		return nil, nil
	}

	loc, err := r.breaker.Execute(func() (*Location, error) {
		return r.lookup(ctx, ip)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			metrics.GeoLookupsTotal.WithLabelValues("rejected").Inc()
			return nil, nil
		}
		metrics.GeoLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if loc == nil {
		metrics.GeoLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	metrics.GeoLookupsTotal.WithLabelValues("hit").Inc()
	return loc, nil
}

// lookup performs one HTTP request against the provider.
func (r *HTTPResolver) lookup(ctx context.Context, ip string) (*Location, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reqURL := r.endpoint + "/" + url.PathEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build geo request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Status string `json:"status"`
		Location
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}
	// ip-api.com reports unlocatable addresses with status "fail" and HTTP
	// 200; that is a miss, not a provider failure.
	if payload.Status != "" && payload.Status != "success" {
		return nil, nil
	}
	return &payload.Location, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
