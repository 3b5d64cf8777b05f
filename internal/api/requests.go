// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

// StartTrackingRequest is the body of POST /tracking/start. An omitted
// owner or interval falls back to the configured defaults.
type StartTrackingRequest struct {
	Owner           string `json:"owner" validate:"omitempty,max=320"`
	IntervalMinutes int    `json:"interval_minutes" validate:"omitempty,interval_minutes"`
}

// HistoryRequest holds GET /history query parameters.
type HistoryRequest struct {
	Owner string `query:"owner" validate:"omitempty,max=320"`
	Date  string `query:"date" validate:"omitempty,date_only"`
}

// TestLocationRequest is the body of POST /locations/test. Zero coordinates
// mean "use the latest fix".
type TestLocationRequest struct {
	Owner     string  `json:"owner" validate:"omitempty,max=320"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// FixRequest is the body of POST /fixes.
type FixRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Time      string  `json:"time" validate:"omitempty,canonical_ts"`
}
