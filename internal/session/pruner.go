// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package session

import (
	"context"
	"time"

	"github.com/bureaudouble/lucarne/internal/logging"
)

// PrunerService periodically prunes expired entries from a Tracker. It
// implements suture.Service so the supervisor restarts it if it ever fails.
type PrunerService struct {
	tracker  *Tracker
	interval time.Duration
}

// NewPrunerService creates a pruner running at the given interval.
func NewPrunerService(tracker *Tracker, interval time.Duration) *PrunerService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &PrunerService{tracker: tracker, interval: interval}
}

// Serve implements suture.Service. It blocks until ctx is canceled.
func (p *PrunerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := p.tracker.Prune(); removed > 0 {
				logging.Debug().Int("removed", removed).Int("remaining", p.tracker.Len()).Msg("pruned expired sessions")
			}
		}
	}
}

// String names the service in supervisor logs.
func (p *PrunerService) String() string {
	return "session-pruner"
}
