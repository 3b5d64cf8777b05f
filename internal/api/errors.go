// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/sync"
)

// classifyError maps engine and sync errors to an HTTP status and API code.
func classifyError(err error) (status int, code string) {
	switch {
	case errors.Is(err, sync.ErrInvalidInterval),
		errors.Is(err, sync.ErrMissingOwner),
		errors.Is(err, engine.ErrNoOwner):
		return http.StatusBadRequest, models.ErrCodeValidation
	case errors.Is(err, sync.ErrNoFixAvailable),
		errors.Is(err, location.ErrPermissionRevoked):
		return http.StatusConflict, models.ErrCodeConflict
	case errors.Is(err, sync.ErrUnauthenticated):
		return http.StatusUnauthorized, models.ErrCodeUnauthenticated
	case errors.Is(err, sync.ErrNetwork):
		return http.StatusServiceUnavailable, models.ErrCodeRemoteUnavailable
	case errors.Is(err, sync.ErrServerRejected):
		return http.StatusBadGateway, models.ErrCodeRemoteRejected
	default:
		return http.StatusInternalServerError, models.ErrCodeInternal
	}
}

// respondEngineError answers with the classified status. Internal errors
// are logged; the rest are expected outcomes.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)
	var logErr error
	if status == http.StatusInternalServerError {
		logErr = err
	}
	respondError(w, r, status, code, err.Error(), logErr)
}
