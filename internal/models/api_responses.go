// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package models

import "time"

// APIResponse is the envelope every control API endpoint responds with.
//
// Status is "success" or "error". On error, Data may still carry a
// degraded payload (for example cached history when the remote fetch failed).
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the structured error body.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input
//   - UNAUTHENTICATED: identity provider could not supply a session
//   - REMOTE_UNAVAILABLE: transport failure or open circuit
//   - REMOTE_REJECTED: the location service refused the request
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// API error codes.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	ErrCodeRemoteRejected    = "REMOTE_REJECTED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// HistoryPayload is the data body of a history response.
type HistoryPayload struct {
	Owner   string           `json:"owner"`
	Date    string           `json:"date,omitempty"`
	Records []LocationRecord `json:"records"`
	Count   int              `json:"count"`
	Empty   bool             `json:"empty"`
	Stale   bool             `json:"stale"`
}
