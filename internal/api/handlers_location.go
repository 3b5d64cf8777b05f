// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"net/http"

	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/models"
)

// testLocationResponse is the data body of POST /locations/test.
type testLocationResponse struct {
	Record models.LocationRecord `json:"record"`
	MapURL string                `json:"map_url,omitempty"`
}

// SendTestLocation handles POST /api/v1/locations/test.
func (h *Handler) SendTestLocation(w http.ResponseWriter, r *http.Request) {
	var req TestLocationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.engine.SendTestLocation(r.Context(), req.Owner, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, testLocationResponse{Record: record, MapURL: record.MapURL()})
}

// PushFix handles POST /api/v1/fixes, forwarding a host-supplied fix to the
// manual location provider.
func (h *Handler) PushFix(w http.ResponseWriter, r *http.Request) {
	if h.fixes == nil {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "location source does not accept pushed fixes", nil)
		return
	}

	var req FixRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sample := location.Sample{Latitude: req.Latitude, Longitude: req.Longitude}
	if req.Time != "" {
		// Already validated as canonical.
		sample.Time, _ = models.ParseTimestamp(req.Time)
	}

	delivered := h.fixes.Push(sample)
	respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{
		"delivered": delivered,
		"has_fix":   sample.HasFix(),
	})
}
