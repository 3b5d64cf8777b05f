// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/models"
)

// History handles GET /api/v1/history?owner=&date=.
//
// A failed remote fetch answers 502 with the cached records in data and the
// classified error, so a client can render stale history with a retry hint.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	req := HistoryRequest{
		Owner: r.URL.Query().Get("owner"),
		Date:  r.URL.Query().Get("date"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Status: "error", Metadata: metadata(r), Error: apiErr})
		return
	}

	result, err := h.engine.GetHistory(r.Context(), req.Owner, req.Date)
	if errors.Is(err, engine.ErrNoOwner) {
		respondEngineError(w, r, err)
		return
	}

	records := result.Records
	if records == nil {
		records = []models.LocationRecord{}
	}
	payload := models.HistoryPayload{
		Owner:   req.Owner,
		Date:    req.Date,
		Records: records,
		Count:   len(records),
		Empty:   result.Empty,
		Stale:   result.Stale,
	}

	if err != nil {
		_, code := classifyError(err)
		respondJSON(w, http.StatusBadGateway, &models.APIResponse{
			Status:   "error",
			Data:     payload,
			Metadata: metadata(r),
			Error:    &models.APIError{Code: code, Message: err.Error()},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, payload)
}
