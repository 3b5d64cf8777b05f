// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"context"
	"time"

	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/sync"
)

// Controller is the engine surface the handlers drive.
type Controller interface {
	StartTracking(ctx context.Context, owner string, intervalMinutes int) error
	StopTracking(ctx context.Context) error
	GetHistory(ctx context.Context, owner, date string) (sync.HistoryResult, error)
	SendTestLocation(ctx context.Context, owner string, lat, lng float64) (models.LocationRecord, error)
	Status(ctx context.Context) engine.Status
	ClearCache(ctx context.Context) error
}

var _ Controller = (*engine.Engine)(nil)

// FixSink accepts fixes pushed by the host application.
type FixSink interface {
	Push(s location.Sample) int
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Handler serves the control API.
type Handler struct {
	engine    Controller
	fixes     FixSink
	checks    map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a Handler. fixes may be nil when the location source is
// not push-based; POST /fixes then answers 404.
func NewHandler(ctrl Controller, fixes FixSink) *Handler {
	return &Handler{
		engine:    ctrl,
		fixes:     fixes,
		checks:    make(map[string]ReadinessCheck),
		startTime: time.Now(),
	}
}

// AddReadinessCheck registers a named check for GET /health/ready.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}
