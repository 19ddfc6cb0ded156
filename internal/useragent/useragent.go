// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package useragent classifies user-agent strings into device class, browser
// name, and browser version.
//
// Classification is case-insensitive substring matching against ordered
// marker tables. Order is load-bearing: "android" alone is ambiguous between
// tablet and mobile, and Chrome, Safari, and Edge share markers, so rules are
// data evaluated in fixed priority rather than control flow.
package useragent

import "strings"

// Device is the coarse device class of a visit.
type Device string

// Device classes, in match priority order.
const (
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
)

// Browser display names.
const (
	BrowserEdge    = "Microsoft Edge"
	BrowserIE      = "Microsoft Internet Explorer"
	BrowserFirefox = "Mozilla Firefox"
	BrowserChrome  = "Google Chrome"
	BrowserSafari  = "Apple Safari"
	BrowserUnknown = "Unknown Browser"
)

// UnknownVersion is reported when no version rule matches.
const UnknownVersion = "Unknown Version"

// Result is the classification of one user-agent string.
type Result struct {
	Device  Device `json:"device"`
	Browser string `json:"browser"`
	Version string `json:"version"`
}

type deviceRule struct {
	device  Device
	markers []string
	// exclude vetoes the rule when present: android-without-mobi is a
	// tablet, android-with-mobi is a phone.
	exclude string
}

// deviceRules are evaluated in order; first match wins, default desktop.
var deviceRules = []deviceRule{
	{device: DeviceTablet, markers: []string{"tablet", "ipad", "playbook", "silk"}},
	{device: DeviceTablet, markers: []string{"android"}, exclude: "mobi"},
	{device: DeviceMobile, markers: []string{
		"mobile", "ip", "android", "blackberry", "iemobile",
		"kindle", "silk-accelerated", "hpwos", "webos", "opera m",
	}},
}

type browserRule struct {
	name    string
	markers []string
}

// browserRules are evaluated in order. Edge and Chrome both carry "chrome",
// and Chrome carries "safari", so Edge precedes Chrome precedes Safari.
var browserRules = []browserRule{
	{name: BrowserEdge, markers: []string{"edg"}},
	{name: BrowserIE, markers: []string{"trident"}},
	{name: BrowserFirefox, markers: []string{"firefox", "fxios"}},
	{name: BrowserChrome, markers: []string{"chrome", "chromium", "crios"}},
	{name: BrowserSafari, markers: []string{"safari"}},
}

type versionRule struct {
	markers []string
	// versionMarker locates the version digits, e.g. "chrome/" in
	// "Chrome/115.0.0.0".
	versionMarker string
	// maxLen caps the extracted version length; 0 means unbounded.
	maxLen int
}

// versionRules are evaluated in order, independently of browser rules: an
// Edge user agent still reports its embedded Chrome version, matching how
// the version marker actually appears in the string.
var versionRules = []versionRule{
	{markers: []string{"firefox", "fxios"}, versionMarker: "firefox/", maxLen: 0},
	{markers: []string{"chrome", "chromium", "crios"}, versionMarker: "chrome/", maxLen: 5},
	{markers: []string{"safari"}, versionMarker: "version/", maxLen: 4},
}

// Classify maps a user-agent string to device class, browser name, and
// browser version. Unknown inputs degrade to desktop / Unknown Browser /
// Unknown Version rather than failing.
func Classify(userAgent string) Result {
	lower := strings.ToLower(userAgent)
	return Result{
		Device:  classifyDevice(lower),
		Browser: classifyBrowser(lower),
		Version: extractVersion(lower),
	}
}

func classifyDevice(lower string) Device {
	for _, rule := range deviceRules {
		if !containsAny(lower, rule.markers) {
			continue
		}
		if rule.exclude != "" && strings.Contains(lower, rule.exclude) {
			continue
		}
		return rule.device
	}
	return DeviceDesktop
}

func classifyBrowser(lower string) string {
	for _, rule := range browserRules {
		if containsAny(lower, rule.markers) {
			return rule.name
		}
	}
	return BrowserUnknown
}

func extractVersion(lower string) string {
	for _, rule := range versionRules {
		if !containsAny(lower, rule.markers) {
			continue
		}
		idx := strings.Index(lower, rule.versionMarker)
		if idx < 0 {
			continue
		}
		return readVersion(lower[idx+len(rule.versionMarker):], rule.maxLen)
	}
	return UnknownVersion
}

// readVersion takes the leading digits and dots of s, capped at maxLen when
// maxLen is positive.
func readVersion(s string, maxLen int) string {
	end := 0
	for end < len(s) {
		if maxLen > 0 && end >= maxLen {
			break
		}
		c := s[end]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		end++
	}
	if end == 0 {
		return UnknownVersion
	}
	return s[:end]
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
