// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bureaudouble/lucarne/internal/config"
)

func testConfig(endpoint string) *config.GeoConfig {
	return &config.GeoConfig{
		Enabled:       true,
		EndpointURL:   endpoint,
		Timeout:       time.Second,
		RatePerSecond: 100,
		Burst:         100,
	}
}

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/203.0.113.7" {
			t.Errorf("lookup path = %q, want /203.0.113.7", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","lat":48.85,"lon":2.35,"countryCode":"FR","regionName":"Ile-de-France","city":"Paris"}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(testConfig(srv.URL))
	loc, err := resolver.Resolve(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc == nil {
		t.Fatal("Resolve() returned nil location")
	}
	if loc.CountryCode != "FR" || loc.CityName != "Paris" {
		t.Errorf("location = %+v, want FR/Paris", loc)
	}
	if loc.Latitude != 48.85 || loc.Longitude != 2.35 {
		t.Errorf("coordinates = %v/%v, want 48.85/2.35", loc.Latitude, loc.Longitude)
	}
}

func TestResolveProviderMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(testConfig(srv.URL))
	loc, err := resolver.Resolve(context.Background(), "10.0.0.1")
	if err != nil {
		t.Fatalf("Resolve() miss should not error, got %v", err)
	}
	if loc != nil {
		t.Errorf("Resolve() miss = %+v, want nil", loc)
	}
}

func TestResolveProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(testConfig(srv.URL))
	loc, err := resolver.Resolve(context.Background(), "203.0.113.7")
	if err == nil {
		t.Error("Resolve() should surface provider errors")
	}
	if loc != nil {
		t.Errorf("Resolve() error case location = %+v, want nil", loc)
	}
}

func TestResolveRateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":"success","countryCode":"FR"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RatePerSecond = 1
	cfg.Burst = 1
	resolver := NewHTTPResolver(cfg)

	if _, err := resolver.Resolve(context.Background(), "203.0.113.7"); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	// Token bucket is exhausted: the second lookup is skipped, not queued.
	loc, err := resolver.Resolve(context.Background(), "203.0.113.8")
	if err != nil || loc != nil {
		t.Errorf("rate-limited Resolve() = (%v, %v), want (nil, nil)", loc, err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestDisabledResolverIsNil(t *testing.T) {
	if r := NewHTTPResolver(&config.GeoConfig{Enabled: false}); r != nil {
		t.Errorf("NewHTTPResolver(disabled) = %v, want nil", r)
	}

	// A nil resolver resolves to nothing without panicking.
	var r *HTTPResolver
	loc, err := r.Resolve(context.Background(), "203.0.113.7")
	if loc != nil || err != nil {
		t.Errorf("nil resolver Resolve() = (%v, %v), want (nil, nil)", loc, err)
	}
}
