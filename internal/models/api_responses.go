// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package models

import (
	"time"
)

// APIResponse is the standardized envelope used by every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure. Metadata is always present for
// observability.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata holds per-response observability fields: the server time the
// response was produced and how long the backing query took.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error with a machine-readable code.
//
// Codes used by this service: VALIDATION_ERROR, NOT_FOUND, METHOD_NOT_ALLOWED,
// STORAGE_ERROR, SERVICE_UNAVAILABLE, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the liveness payload. It reports nothing about
// dependencies; a live process always answers healthy.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyStatus is the readiness payload. Ready is false when the state
// store cannot be read or the storage circuit breaker is open.
type ReadyStatus struct {
	Ready    bool   `json:"ready"`
	Storage  string `json:"storage"`
	Breaker  string `json:"breaker"`
	Vehicles int    `json:"vehicles"`
}
