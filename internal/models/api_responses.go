// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints, for both success and error responses.
//
// Status is "success" or "error"; Error is populated only on "error".
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"hits": 42, ...},
//	  "metadata": {"timestamp": "2026-08-27T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request with a stable machine-readable code.
//
// Codes in use: VALIDATION_ERROR, DATABASE_ERROR, SERVICE_ERROR,
// METHOD_NOT_ALLOWED, NOT_FOUND.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
