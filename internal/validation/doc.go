// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

// Package validation wraps go-playground/validator v10 with a shared
// instance, Trackline-specific tags and error messages keyed by JSON field
// names. Failures convert directly into the API error envelope:
//
//	type startRequest struct {
//	    Owner           string `json:"owner" validate:"required"`
//	    IntervalMinutes int    `json:"interval_minutes" validate:"interval_minutes"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
//	}
package validation
