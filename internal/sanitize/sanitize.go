// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package sanitize restricts client-supplied key names to a safe identifier
// charset before they are used as storage field references.
//
// Storage columns are schema-mapped per entity, so this is defense-in-depth
// rather than the primary injection defense. It still applies to the dynamic
// keys of visit parameter maps and event value payloads.
package sanitize

import "strings"

// Column strips every character outside [A-Za-z0-9_] from key.
func Column(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Keys returns a copy of m with every key passed through Column. Keys that
// sanitize to the empty string are dropped; on collision the last value wins.
func Keys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if safe := Column(k); safe != "" {
			out[safe] = v
		}
	}
	return out
}
