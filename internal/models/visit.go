// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package models defines the Lucarne data model: raw visit and event records,
// the derived aggregate report, and the API response envelope.
package models

// Visit is one page load from a client.
//
// A Visit is inserted exactly once at page load and may be updated exactly
// once later, on page unload, to fill LoadTime and VisitDuration. No other
// mutation occurs.
type Visit struct {
	// ID is a unix-millisecond timestamp unique enough to key updates.
	// Assigned at ingestion when the client does not supply one.
	ID int64 `json:"id"`

	Referrer  string `json:"referrer,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	Path      string `json:"path,omitempty"`

	// Geolocation enrichment, populated at ingestion when a resolver is
	// configured. Nil when unresolved.
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	CountryCode *string  `json:"country_code,omitempty"`
	RegionName  *string  `json:"region_name,omitempty"`
	CityName    *string  `json:"city_name,omitempty"`

	// Parameters holds the query parameters of the landing URL. Keys are
	// sanitized at ingestion; the map is stored serialized.
	Parameters map[string]string `json:"parameters,omitempty"`

	ScreenWidth  *int `json:"screen_width,omitempty"`
	ScreenHeight *int `json:"screen_height,omitempty"`

	// LoadTime and VisitDuration are in seconds, reported on page unload.
	LoadTime      *float64 `json:"load_time,omitempty"`
	VisitDuration *float64 `json:"visit_duration,omitempty"`

	// SessionID is the unix-millisecond timestamp of the first visit in this
	// visit's session (same IP, 30-minute inactivity window).
	SessionID int64 `json:"session_id"`

	// Ignore marks visits opted out of reporting.
	Ignore bool `json:"ignore,omitempty"`
}

// Event is one tracked interaction tied to a Visit. Events are append-only.
type Event struct {
	// ID is a unix-millisecond timestamp, assigned at ingestion when the
	// client does not supply one.
	ID int64 `json:"id"`

	// VisitID references the originating Visit.
	VisitID int64 `json:"visit_id"`

	Category string `json:"category"`
	Action   string `json:"action"`

	// Value is an optional structured payload, e.g. {"href": "..."} for
	// external-link clicks. Keys are sanitized at ingestion; the map is
	// stored serialized.
	Value map[string]string `json:"value,omitempty"`

	Label string `json:"label,omitempty"`
}

// Event categories and actions tracked by the client script.
const (
	EventCategoryExternalLink = "EXTERNAL_LINK"
	EventActionClick          = "CLICK"
)
