// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

// Package session assigns visits to sessions.
//
// A session groups all visits from one IP address separated by less than the
// inactivity timeout. The session identifier is the unix-millisecond
// timestamp of the first visit in the window. State is process-local and
// in-memory; a restart starts fresh sessions, which is an accepted
// approximation rather than a durability guarantee.
package session

import (
	"sync"
	"time"
)

// Tracker maps IP addresses to session start timestamps.
//
// The clock is injected so tests can drive time explicitly. All methods are
// safe for concurrent use; the mutex prevents two concurrent requests from
// the same IP both starting a new session.
type Tracker struct {
	mu      sync.Mutex
	active  map[string]int64 // IP -> session start, unix millis
	timeout time.Duration
	now     func() time.Time
}

// NewTracker creates a Tracker with the given inactivity timeout. A nil
// clock defaults to time.Now.
func NewTracker(timeout time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		active:  make(map[string]int64),
		timeout: timeout,
		now:     now,
	}
}

// Assign returns the session id for ip. If ip has no live session (no entry,
// or the stored start is older than the timeout), a new session starts at the
// current time and its timestamp is returned; otherwise the existing session
// id is returned unchanged.
func (t *Tracker) Assign(ip string) int64 {
	nowMillis := t.now().UnixMilli()
	cutoff := nowMillis - t.timeout.Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.active[ip]
	if !ok || start < cutoff {
		t.active[ip] = nowMillis
		return nowMillis
	}
	return start
}

// Prune removes entries whose session start is older than the timeout and
// returns the number removed. Without pruning the map grows with distinct-IP
// cardinality for the lifetime of the process.
func (t *Tracker) Prune() int {
	cutoff := t.now().UnixMilli() - t.timeout.Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ip, start := range t.active {
		if start < cutoff {
			delete(t.active, ip)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked IPs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
