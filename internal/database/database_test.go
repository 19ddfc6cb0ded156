// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package database

import (
	"context"
	"testing"

	"github.com/bureaudouble/lucarne/internal/config"
	"github.com/bureaudouble/lucarne/internal/models"
)

// setupTestDB opens an isolated in-memory store per test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestInsertAndListVisits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	country := "FR"
	width := 1920
	visit := &models.Visit{
		ID:          1700000000000,
		Referrer:    "https://search.example.org/q",
		IP:          "203.0.113.1",
		UserAgent:   "Mozilla/5.0 Chrome/115.0 Safari/537.36",
		Hostname:    "example.com",
		Path:        "/articles",
		CountryCode: &country,
		Parameters:  map[string]string{"utm_source": "news"},
		ScreenWidth: &width,
		SessionID:   1700000000000,
	}
	if err := db.InsertVisit(ctx, visit); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	visits, err := db.ListVisits(ctx)
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("ListVisits() returned %d visits, want 1", len(visits))
	}

	got := visits[0]
	if got.ID != visit.ID || got.IP != visit.IP || got.Path != visit.Path {
		t.Errorf("round-tripped visit = %+v, want %+v", got, visit)
	}
	if got.CountryCode == nil || *got.CountryCode != "FR" {
		t.Errorf("CountryCode = %v, want FR", got.CountryCode)
	}
	if got.ScreenWidth == nil || *got.ScreenWidth != 1920 {
		t.Errorf("ScreenWidth = %v, want 1920", got.ScreenWidth)
	}
	if got.ScreenHeight != nil {
		t.Errorf("ScreenHeight = %v, want nil", got.ScreenHeight)
	}
	if got.Parameters["utm_source"] != "news" {
		t.Errorf("Parameters = %v, want utm_source=news", got.Parameters)
	}
	if got.LoadTime != nil || got.VisitDuration != nil {
		t.Errorf("timings should be nil before exit update, got %v/%v", got.LoadTime, got.VisitDuration)
	}
}

func TestInsertVisitAssignsID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	visit := &models.Visit{IP: "203.0.113.2", SessionID: 42}
	if err := db.InsertVisit(ctx, visit); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}
	if visit.ID == 0 {
		t.Error("InsertVisit() should assign a millisecond id when none is supplied")
	}
}

func TestUpdateVisitTimings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	visit := &models.Visit{ID: 1700000000001, IP: "203.0.113.1", SessionID: 1}
	if err := db.InsertVisit(ctx, visit); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	loadTime := 0.42
	duration := 12.5
	if err := db.UpdateVisitTimings(ctx, visit.ID, &loadTime, &duration); err != nil {
		t.Fatalf("UpdateVisitTimings() error = %v", err)
	}

	visits, err := db.ListVisits(ctx)
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	got := visits[0]
	if got.LoadTime == nil || *got.LoadTime != loadTime {
		t.Errorf("LoadTime = %v, want %v", got.LoadTime, loadTime)
	}
	if got.VisitDuration == nil || *got.VisitDuration != duration {
		t.Errorf("VisitDuration = %v, want %v", got.VisitDuration, duration)
	}
}

func TestUpdateVisitTimingsPartialAndNoop(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	visit := &models.Visit{ID: 1700000000002, SessionID: 1}
	if err := db.InsertVisit(ctx, visit); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	// Only one of the two allowed columns supplied.
	duration := 3.0
	if err := db.UpdateVisitTimings(ctx, visit.ID, nil, &duration); err != nil {
		t.Fatalf("UpdateVisitTimings() error = %v", err)
	}

	// Both nil is a no-op, not an error.
	if err := db.UpdateVisitTimings(ctx, visit.ID, nil, nil); err != nil {
		t.Fatalf("UpdateVisitTimings() no-op error = %v", err)
	}

	// Unknown id matches no row and is not an error.
	if err := db.UpdateVisitTimings(ctx, 999, &duration, nil); err != nil {
		t.Fatalf("UpdateVisitTimings() unknown id error = %v", err)
	}

	visits, err := db.ListVisits(ctx)
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	got := visits[0]
	if got.LoadTime != nil {
		t.Errorf("LoadTime = %v, want nil (never supplied)", got.LoadTime)
	}
	if got.VisitDuration == nil || *got.VisitDuration != duration {
		t.Errorf("VisitDuration = %v, want %v", got.VisitDuration, duration)
	}
}

func TestInsertAndListEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := &models.Event{
		VisitID:  1700000000000,
		Category: models.EventCategoryExternalLink,
		Action:   models.EventActionClick,
		Value:    map[string]string{"href": "https://peer.example.net"},
		Label:    "footer",
	}
	if err := db.InsertEvent(ctx, event); err != nil {
		t.Fatalf("InsertEvent() error = %v", err)
	}
	if event.ID == 0 {
		t.Error("InsertEvent() should assign a millisecond id when none is supplied")
	}

	events, err := db.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ListEvents() returned %d events, want 1", len(events))
	}
	got := events[0]
	if got.Category != models.EventCategoryExternalLink || got.Action != models.EventActionClick {
		t.Errorf("event = %+v, want EXTERNAL_LINK/CLICK", got)
	}
	if got.Value["href"] != "https://peer.example.net" {
		t.Errorf("Value = %v, want href set", got.Value)
	}
	if got.Label != "footer" {
		t.Errorf("Label = %q, want footer", got.Label)
	}
}

func TestListEmptyStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	visits, err := db.ListVisits(ctx)
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("ListVisits() on empty store = %v, want empty", visits)
	}

	events, err := db.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("ListEvents() on empty store = %v, want empty", events)
	}
}
