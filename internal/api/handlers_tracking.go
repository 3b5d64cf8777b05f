// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"net/http"
)

// StartTracking handles POST /api/v1/tracking/start.
func (h *Handler) StartTracking(w http.ResponseWriter, r *http.Request) {
	var req StartTrackingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.engine.StartTracking(r.Context(), req.Owner, req.IntervalMinutes); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, h.engine.Status(r.Context()))
}

// StopTracking handles POST /api/v1/tracking/stop. Stopping an idle engine
// succeeds.
func (h *Handler) StopTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.StopTracking(r.Context()); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, h.engine.Status(r.Context()))
}

// TrackingStatus handles GET /api/v1/tracking.
func (h *Handler) TrackingStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.engine.Status(r.Context()))
}
