// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package analytics computes the aggregate report from raw visit and event
// records.
//
// Aggregate is a pure function over the full record set: it holds no state
// across calls and may be invoked concurrently without coordination. The
// report is recomputed on every request; at dashboard read volumes this is
// acceptable, and an incremental or materialized strategy is the natural
// evolution if it ever is not.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/bureaudouble/lucarne/internal/models"
	"github.com/bureaudouble/lucarne/internal/useragent"
)

// Config controls which records enter aggregation and which query parameters
// are ignored.
type Config struct {
	// ExcludedHostSuffixes drops visits whose hostname ends with any entry.
	ExcludedHostSuffixes []string
	// ExcludedHostSubstrings drops visits whose hostname contains any entry.
	ExcludedHostSubstrings []string
	// NoiseParameterKeys are excluded from the parameters breakdown.
	NoiseParameterKeys []string
}

// DefaultConfig matches the hosted deployments this plugin grew up on:
// deno.dev previews and localhost never enter aggregates, and fbclid is
// tracking noise.
func DefaultConfig() Config {
	return Config{
		ExcludedHostSuffixes:   []string{".deno.dev"},
		ExcludedHostSubstrings: []string{"localhost"},
		NoiseParameterKeys:     []string{"fbclid"},
	}
}

// Engine aggregates visits and events into a Report.
type Engine struct {
	cfg   Config
	noise map[string]struct{}
}

// NewEngine creates an Engine with the given config.
func NewEngine(cfg Config) *Engine {
	noise := make(map[string]struct{}, len(cfg.NoiseParameterKeys))
	for _, k := range cfg.NoiseParameterKeys {
		noise[k] = struct{}{}
	}
	return &Engine{cfg: cfg, noise: noise}
}

// enriched is a visit after filtering, carrying its derived dimensions.
type enriched struct {
	models.Visit
	ua          useragent.Result
	refHostname string
}

// Aggregate computes the full report from the given records. Both slices may
// be empty; the result is then a zeroed report with empty breakdowns, not an
// error.
func (e *Engine) Aggregate(visits []models.Visit, events []models.Event) models.Report {
	kept := e.filterAndEnrich(visits)

	report := models.Report{
		Hits: len(kept),
	}

	// Scalars over distinct IPs and sessions.
	ips := make(map[string]struct{})
	sessionVisits := make(map[int64]int)
	sessionDurations := make(map[int64]float64)
	for _, v := range kept {
		if v.IP != "" {
			ips[v.IP] = struct{}{}
		}
		sessionVisits[v.SessionID]++
		if v.VisitDuration != nil {
			sessionDurations[v.SessionID] += *v.VisitDuration
		}
	}
	report.Uniques = len(ips)
	report.Sessions = len(sessionVisits)
	for _, n := range sessionVisits {
		if n == 1 {
			report.Bounces++
		}
	}

	// Medians over positive values only.
	var perSession, perVisit, loadTimes []float64
	for _, total := range sessionDurations {
		if total > 0 {
			perSession = append(perSession, total)
		}
	}
	for _, v := range kept {
		if v.VisitDuration != nil && *v.VisitDuration > 0 {
			perVisit = append(perVisit, *v.VisitDuration)
		}
		if v.LoadTime != nil && *v.LoadTime > 0 {
			loadTimes = append(loadTimes, *v.LoadTime)
		}
	}
	report.SessionDuration = median(perSession)
	report.VisitDuration = median(perVisit)
	report.LoadTime = median(loadTimes)

	report.Daily = dailyCounts(kept)
	report.Cities = cityCounts(kept)
	report.Regions = regionCounts(kept)
	report.Countries = countryCounts(kept)
	report.Screens = screenCounts(kept)
	report.Locations = pathCounts(kept)
	report.Devices = deviceCounts(kept)
	report.Browsers = browserCounts(kept)
	report.Versions = versionCounts(kept)
	report.Parameters = e.parameterCounts(kept)
	report.Referrers = referrerCounts(kept)
	report.ExternalLinks = externalLinkCounts(events)

	return report
}

// filterAndEnrich drops development/staging visits and derives per-visit
// dimensions. The ignore flag is stored but deliberately not filtered on
// here.
func (e *Engine) filterAndEnrich(visits []models.Visit) []enriched {
	kept := make([]enriched, 0, len(visits))
	for _, v := range visits {
		if e.excludedHost(v.Hostname) {
			continue
		}
		kept = append(kept, enriched{
			Visit:       v,
			ua:          useragent.Classify(v.UserAgent),
			refHostname: RefHostname(v.Referrer),
		})
	}
	return kept
}

func (e *Engine) excludedHost(hostname string) bool {
	lower := strings.ToLower(hostname)
	for _, suffix := range e.cfg.ExcludedHostSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	for _, sub := range e.cfg.ExcludedHostSubstrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func dailyCounts(visits []enriched) []models.DailyCount {
	byDate := make(map[string]int)
	for _, v := range visits {
		date := time.UnixMilli(v.ID).UTC().Format("2006-01-02")
		byDate[date]++
	}
	out := make([]models.DailyCount, 0, len(byDate))
	for date, count := range byDate {
		out = append(out, models.DailyCount{Date: date, Count: count})
	}
	// Daily is the one breakdown ordered by dimension, not by count.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func cityCounts(visits []enriched) []models.CityCount {
	type key struct{ city, country string }
	counts := make(map[key]int)
	for _, v := range visits {
		counts[key{deref(v.CityName), deref(v.CountryCode)}]++
	}
	out := make([]models.CityCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.CityCount{CityName: k.city, CountryCode: k.country, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		if out[i].CountryCode != out[j].CountryCode {
			return out[i].CountryCode < out[j].CountryCode
		}
		return out[i].CityName < out[j].CityName
	})
	return out
}

func regionCounts(visits []enriched) []models.RegionCount {
	type key struct{ region, country string }
	counts := make(map[key]int)
	for _, v := range visits {
		counts[key{deref(v.RegionName), deref(v.CountryCode)}]++
	}
	out := make([]models.RegionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.RegionCount{RegionName: k.region, CountryCode: k.country, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		if out[i].CountryCode != out[j].CountryCode {
			return out[i].CountryCode < out[j].CountryCode
		}
		return out[i].RegionName < out[j].RegionName
	})
	return out
}

func countryCounts(visits []enriched) []models.CountryCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[deref(v.CountryCode)]++
	}
	out := make([]models.CountryCount, 0, len(counts))
	for country, n := range counts {
		out = append(out, models.CountryCount{CountryCode: country, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].CountryCode < out[j].CountryCode
	})
	return out
}

func screenCounts(visits []enriched) []models.ScreenCount {
	type key struct{ w, h int }
	counts := make(map[key]int)
	for _, v := range visits {
		counts[key{derefInt(v.ScreenWidth), derefInt(v.ScreenHeight)}]++
	}
	out := make([]models.ScreenCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.ScreenCount{Width: k.w, Height: k.h, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		if out[i].Width != out[j].Width {
			return out[i].Width < out[j].Width
		}
		return out[i].Height < out[j].Height
	})
	return out
}

func pathCounts(visits []enriched) []models.PathCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[v.Path]++
	}
	out := make([]models.PathCount, 0, len(counts))
	for path, n := range counts {
		out = append(out, models.PathCount{Path: path, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func deviceCounts(visits []enriched) []models.DeviceCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[string(v.ua.Device)]++
	}
	out := make([]models.DeviceCount, 0, len(counts))
	for device, n := range counts {
		out = append(out, models.DeviceCount{Device: device, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Device < out[j].Device
	})
	return out
}

func browserCounts(visits []enriched) []models.BrowserCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[v.ua.Browser]++
	}
	out := make([]models.BrowserCount, 0, len(counts))
	for browser, n := range counts {
		out = append(out, models.BrowserCount{Browser: browser, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Browser < out[j].Browser
	})
	return out
}

func versionCounts(visits []enriched) []models.VersionCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[v.ua.Version]++
	}
	out := make([]models.VersionCount, 0, len(counts))
	for version, n := range counts {
		out = append(out, models.VersionCount{Version: version, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Version < out[j].Version
	})
	return out
}

func (e *Engine) parameterCounts(visits []enriched) []models.ParameterCount {
	type key struct{ k, v string }
	counts := make(map[key]int)
	for _, visit := range visits {
		for k, v := range visit.Parameters {
			if _, noisy := e.noise[k]; noisy {
				continue
			}
			counts[key{k, v}]++
		}
	}
	out := make([]models.ParameterCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.ParameterCount{Key: k.k, Value: k.v, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// referrerCounts keeps external referrers only: a referrer pointing at the
// visit's own hostname is internal navigation, not a source.
func referrerCounts(visits []enriched) []models.ReferrerCount {
	counts := make(map[string]int)
	for _, v := range visits {
		if v.Referrer == "" || v.refHostname == v.Hostname {
			continue
		}
		counts[v.Referrer]++
	}
	out := make([]models.ReferrerCount, 0, len(counts))
	for referrer, n := range counts {
		out = append(out, models.ReferrerCount{Referrer: referrer, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Referrer < out[j].Referrer
	})
	return out
}

func externalLinkCounts(events []models.Event) []models.ExternalLinkRef {
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.Category != models.EventCategoryExternalLink || ev.Action != models.EventActionClick {
			continue
		}
		href := ev.Value["href"]
		if href == "" {
			continue
		}
		counts[href]++
	}
	out := make([]models.ExternalLinkRef, 0, len(counts))
	for href, n := range counts {
		out = append(out, models.ExternalLinkRef{Href: href, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Href < out[j].Href
	})
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
