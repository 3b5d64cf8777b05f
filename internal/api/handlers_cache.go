// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"net/http"

	"github.com/tomtom215/trackline/internal/models"
)

// ClearCache handles DELETE /api/v1/cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearCache(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "failed to clear cache", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]bool{"cleared": true})
}
