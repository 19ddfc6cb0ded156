// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package analytics

import "strings"

// RefHostname extracts the hostname portion of a referrer URL: the scheme is
// stripped and everything from the first slash on is dropped. An empty
// referrer yields an empty hostname.
//
//	RefHostname("https://example.com/foo/bar") == "example.com"
//	RefHostname("example.com/foo")             == "example.com"
//	RefHostname("")                            == ""
func RefHostname(referrer string) string {
	rest := referrer
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
