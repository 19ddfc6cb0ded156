// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds ingestion payloads. Beacon payloads are tiny; anything
// near this limit is abuse.
const maxBodyBytes = 64 * 1024

// VisitPayload is the body of POST /api/log/visit. The beacon generates the
// id client-side and keys its later quit and event posts to it, so a supplied
// id must be preserved verbatim.
type VisitPayload struct {
	ID         int64             `json:"id" validate:"omitempty,gt=0"`
	Referrer   string            `json:"referrer" validate:"max=2048"`
	Hostname   string            `json:"hostname" validate:"required,max=253"`
	Path       string            `json:"path" validate:"max=2048"`
	UserAgent  string            `json:"user_agent" validate:"max=1024"`
	Parameters map[string]string `json:"parameters"`

	ScreenWidth  *int `json:"screen_width" validate:"omitempty,gte=0,lte=32767"`
	ScreenHeight *int `json:"screen_height" validate:"omitempty,gte=0,lte=32767"`

	Ignore bool `json:"ignore"`
}

// ExitPayload is the body of POST /api/log/quit. Only the timing fields
// below are applied; any other keys in the payload are ignored.
type ExitPayload struct {
	ID            int64    `json:"id" validate:"required,gt=0"`
	LoadTime      *float64 `json:"load_time" validate:"omitempty,gte=0"`
	VisitDuration *float64 `json:"visit_duration" validate:"omitempty,gte=0"`
}

// EventPayload is the body of POST /api/log/event.
type EventPayload struct {
	VisitID  int64             `json:"visit_id" validate:"omitempty,gt=0"`
	Category string            `json:"category" validate:"required,max=255"`
	Action   string            `json:"action" validate:"required,max=255"`
	Value    map[string]string `json:"value"`
	Label    string            `json:"label" validate:"max=1024"`
}

// decodeBody reads and unmarshals a JSON request body with a size bound.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// clientIP returns the originating client address: the first element of
// X-Forwarded-For when present, otherwise the connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
