// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureaudouble/lucarne/internal/config"
)

func testRouter(store Store) http.Handler {
	security := &config.SecurityConfig{
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
	return NewRouter(newTestHandler(store, nil), security).Setup()
}

func TestRouter_Routes(t *testing.T) {
	router := testRouter(&fakeStore{})

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/log/visit", `{"hostname":"example.com"}`, http.StatusCreated},
		{http.MethodPost, "/api/log/quit", `{"id":1,"visit_duration":2.0}`, http.StatusOK},
		{http.MethodPost, "/api/log/event", `{"category":"NAV","action":"CLICK"}`, http.StatusCreated},
		{http.MethodGet, "/api/report", "", http.StatusOK},
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := testRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND envelope", env.Error)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := testRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodDelete, "/api/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("error = %+v, want METHOD_NOT_ALLOWED envelope", env.Error)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := testRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on routed responses")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := testRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/log/visit", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected Access-Control-Allow-Origin on preflight response")
	}
}
