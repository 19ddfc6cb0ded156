// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package models

// Report is the full analytics snapshot computed from the raw visit and
// event records. It is recomputed on every request and never persisted.
//
// Duration-like scalars (SessionDuration, VisitDuration, LoadTime) are
// medians, not means, for outlier resistance. They are zero when no
// qualifying data exists.
type Report struct {
	Hits     int `json:"hits"`
	Uniques  int `json:"uniques"`
	Sessions int `json:"sessions"`
	Bounces  int `json:"bounces"`

	// SessionDuration is the median of per-session summed visit durations,
	// in seconds, over sessions with a positive total.
	SessionDuration float64 `json:"session_duration"`
	// VisitDuration is the median of positive individual visit durations,
	// in seconds.
	VisitDuration float64 `json:"visit_duration"`
	// LoadTime is the median of positive page load times, in seconds.
	LoadTime float64 `json:"load_time"`

	// Daily is ordered ascending by date; every other breakdown is ordered
	// by descending count.
	Daily         []DailyCount      `json:"daily"`
	Cities        []CityCount       `json:"cities"`
	Regions       []RegionCount     `json:"regions"`
	Countries     []CountryCount    `json:"countries"`
	Screens       []ScreenCount     `json:"screens"`
	Locations     []PathCount       `json:"locations"`
	Devices       []DeviceCount     `json:"devices"`
	Browsers      []BrowserCount    `json:"browsers"`
	Versions      []VersionCount    `json:"versions"`
	Parameters    []ParameterCount  `json:"parameters"`
	Referrers     []ReferrerCount   `json:"referrers"`
	ExternalLinks []ExternalLinkRef `json:"external_links"`
}

// DailyCount is the number of visits on one calendar date (UTC, derived from
// the visit id as a unix-millisecond timestamp).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CityCount counts visits per city and country pair.
type CityCount struct {
	CityName    string `json:"city_name"`
	CountryCode string `json:"country_code"`
	Views       int    `json:"views"`
}

// RegionCount counts visits per region and country pair.
type RegionCount struct {
	RegionName  string `json:"region_name"`
	CountryCode string `json:"country_code"`
	Views       int    `json:"views"`
}

// CountryCount counts visits per country.
type CountryCount struct {
	CountryCode string `json:"country_code"`
	Views       int    `json:"views"`
}

// ScreenCount counts visits per screen resolution.
type ScreenCount struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Views  int `json:"views"`
}

// PathCount counts visits per page path.
type PathCount struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// DeviceCount counts visits per device class (tablet, mobile, desktop).
type DeviceCount struct {
	Device string `json:"device"`
	Views  int    `json:"views"`
}

// BrowserCount counts visits per browser name.
type BrowserCount struct {
	Browser string `json:"browser"`
	Views   int    `json:"views"`
}

// VersionCount counts visits per browser version string.
type VersionCount struct {
	Version string `json:"version"`
	Views   int    `json:"views"`
}

// ParameterCount counts visits per landing-URL query parameter key/value
// pair, noise keys excluded.
type ParameterCount struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Views int    `json:"views"`
}

// ReferrerCount counts visits per external referrer URL. Referrers whose
// hostname matches the visit's own hostname are excluded.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Views    int    `json:"views"`
}

// ExternalLinkRef counts external-link click events per destination URL.
type ExternalLinkRef struct {
	Href  string `json:"href"`
	Count int    `json:"count"`
}
