// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package services

import (
	"context"

	"github.com/tomtom215/trackline/internal/logging"
)

// TrackingEngine is the lifecycle surface of engine.Engine.
type TrackingEngine interface {
	Rearm(ctx context.Context) (bool, error)
	Close() error
}

// TrackingService owns the tracking engine's lifetime. On start it can
// resume a session that was active when the process last exited; on
// shutdown it stops tracking and waits for in-flight submissions.
type TrackingService struct {
	engine    TrackingEngine
	autoRearm bool
}

// NewTrackingService creates the service.
func NewTrackingService(engine TrackingEngine, autoRearm bool) *TrackingService {
	return &TrackingService{engine: engine, autoRearm: autoRearm}
}

// Serve implements suture.Service. A failed re-arm is logged, not returned:
// restarting would only repeat it.
func (s *TrackingService) Serve(ctx context.Context) error {
	if s.autoRearm {
		resumed, err := s.engine.Rearm(ctx)
		switch {
		case err != nil:
			logging.Warn().Err(err).Msg("Could not resume tracking session")
		case resumed:
			logging.Info().Msg("Tracking session resumed")
		}
	}

	<-ctx.Done()

	if err := s.engine.Close(); err != nil {
		logging.Error().Err(err).Msg("Tracking engine close failed")
	}
	return ctx.Err()
}

func (s *TrackingService) String() string {
	return "tracking-engine"
}
