// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bureaudouble/lucarne/internal/analytics"
	"github.com/bureaudouble/lucarne/internal/geoip"
	"github.com/bureaudouble/lucarne/internal/logging"
	"github.com/bureaudouble/lucarne/internal/metrics"
	"github.com/bureaudouble/lucarne/internal/models"
	"github.com/bureaudouble/lucarne/internal/sanitize"
	"github.com/bureaudouble/lucarne/internal/session"
	"github.com/bureaudouble/lucarne/internal/validation"
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	InsertVisit(ctx context.Context, visit *models.Visit) error
	UpdateVisitTimings(ctx context.Context, id int64, loadTime, visitDuration *float64) error
	InsertEvent(ctx context.Context, event *models.Event) error
	ListVisits(ctx context.Context) ([]models.Visit, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	Ping(ctx context.Context) error
}

// Handler serves the ingestion and reporting endpoints.
type Handler struct {
	store    Store
	engine   *analytics.Engine
	tracker  *session.Tracker
	resolver geoip.Resolver
}

// NewHandler wires the handler's dependencies. resolver may be nil when
// geolocation is disabled.
func NewHandler(store Store, engine *analytics.Engine, tracker *session.Tracker, resolver geoip.Resolver) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		tracker:  tracker,
		resolver: resolver,
	}
}

// LogVisit handles POST /api/log/visit: assigns a session, enriches the
// record with geolocation when available, and persists it.
func (h *Handler) LogVisit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var payload VisitPayload
	if err := decodeBody(w, r, &payload); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("visit", "decode").Inc()
		rw.ValidationError("Invalid JSON body", nil)
		return
	}

	if verr := validation.ValidateStruct(&payload); verr != nil {
		metrics.IngestErrorsTotal.WithLabelValues("visit", "validation").Inc()
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ip := clientIP(r)
	userAgent := payload.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	visit := &models.Visit{
		ID:           payload.ID,
		Referrer:     payload.Referrer,
		IP:           ip,
		UserAgent:    userAgent,
		Hostname:     payload.Hostname,
		Path:         payload.Path,
		Parameters:   sanitize.Keys(payload.Parameters),
		ScreenWidth:  payload.ScreenWidth,
		ScreenHeight: payload.ScreenHeight,
		SessionID:    h.tracker.Assign(ip),
		Ignore:       payload.Ignore,
	}
	metrics.SessionMapSize.Set(float64(h.tracker.Len()))

	h.resolveLocation(r.Context(), visit, ip)

	if err := h.store.InsertVisit(r.Context(), visit); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("visit", "storage").Inc()
		rw.DatabaseError(err)
		return
	}

	metrics.IngestTotal.WithLabelValues("visit").Inc()
	rw.Created(map[string]int64{
		"id":         visit.ID,
		"session_id": visit.SessionID,
	})
}

// LogQuit handles POST /api/log/quit: applies end-of-visit timings to an
// existing visit. Only load_time and visit_duration are applied; any other
// payload keys are ignored.
func (h *Handler) LogQuit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var payload ExitPayload
	if err := decodeBody(w, r, &payload); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("quit", "decode").Inc()
		rw.ValidationError("Invalid JSON body", nil)
		return
	}

	if verr := validation.ValidateStruct(&payload); verr != nil {
		metrics.IngestErrorsTotal.WithLabelValues("quit", "validation").Inc()
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	if err := h.store.UpdateVisitTimings(r.Context(), payload.ID, payload.LoadTime, payload.VisitDuration); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("quit", "storage").Inc()
		rw.DatabaseError(err)
		return
	}

	metrics.IngestTotal.WithLabelValues("quit").Inc()
	rw.Success(map[string]int64{"id": payload.ID})
}

// LogEvent handles POST /api/log/event: records a tracked interaction.
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var payload EventPayload
	if err := decodeBody(w, r, &payload); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("event", "decode").Inc()
		rw.ValidationError("Invalid JSON body", nil)
		return
	}

	if verr := validation.ValidateStruct(&payload); verr != nil {
		metrics.IngestErrorsTotal.WithLabelValues("event", "validation").Inc()
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	event := &models.Event{
		VisitID:  payload.VisitID,
		Category: payload.Category,
		Action:   payload.Action,
		Value:    sanitize.Keys(payload.Value),
		Label:    payload.Label,
	}

	if err := h.store.InsertEvent(r.Context(), event); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("event", "storage").Inc()
		rw.DatabaseError(err)
		return
	}

	metrics.IngestTotal.WithLabelValues("event").Inc()
	rw.Created(map[string]int64{"id": event.ID})
}

// Report handles GET /api/report: recomputes the aggregate report from the
// full store on every request.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)
	start := time.Now()

	visits, err := h.store.ListVisits(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	report := h.engine.Aggregate(visits, events)
	metrics.ReportDuration.Observe(time.Since(start).Seconds())

	logging.Debug().
		Int("visits", len(visits)).
		Int("events", len(events)).
		Dur("elapsed", time.Since(start)).
		Msg("report computed")

	rw.Success(report)
}

// Health handles GET /api/health: liveness plus a storage ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	if err := h.store.Ping(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("health check storage ping failed")
		rw.ServiceUnavailable("Storage unavailable")
		return
	}

	rw.Success(map[string]string{"status": "ok"})
}

// resolveLocation enriches a visit with geolocation data. Lookup failures
// degrade to an unenriched visit and never fail ingestion.
func (h *Handler) resolveLocation(ctx context.Context, visit *models.Visit, ip string) {
	if h.resolver == nil {
		return
	}

	loc, err := h.resolver.Resolve(ctx, ip)
	if err != nil {
		logging.Debug().Err(err).Str("ip", ip).Msg("geolocation lookup failed")
		return
	}
	if loc == nil {
		return
	}

	visit.Latitude = &loc.Latitude
	visit.Longitude = &loc.Longitude
	if loc.CountryCode != "" {
		visit.CountryCode = &loc.CountryCode
	}
	if loc.RegionName != "" {
		visit.RegionName = &loc.RegionName
	}
	if loc.CityName != "" {
		visit.CityName = &loc.CityName
	}
}
