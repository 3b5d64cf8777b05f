// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"errors"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/models"
)

// Reporter receives per-tick outcomes. Implementations must be safe for
// concurrent use; submit outcomes arrive on worker goroutines.
type Reporter interface {
	SubmitSucceeded(ctx context.Context, record models.LocationRecord)
	SubmitFailed(ctx context.Context, record models.LocationRecord, err error)
	NoFix(ctx context.Context, owner string)
}

// LogReporter writes outcomes to the structured log.
type LogReporter struct{}

var _ Reporter = LogReporter{}

func (LogReporter) SubmitSucceeded(ctx context.Context, record models.LocationRecord) {
	logging.Ctx(ctx).Info().
		Str("owner", logging.RedactOwner(record.OwnerIdentity)).
		Str("inserted_at", record.InsertedAt).
		Float64("latitude", record.Latitude).
		Float64("longitude", record.Longitude).
		Msg("Location sent")
}

func (LogReporter) SubmitFailed(ctx context.Context, record models.LocationRecord, err error) {
	ev := logging.Ctx(ctx).Warn()
	if errors.Is(err, ErrUnauthenticated) {
		ev = logging.Ctx(ctx).Error()
	}
	ev.Err(err).
		Str("owner", logging.RedactOwner(record.OwnerIdentity)).
		Str("inserted_at", record.InsertedAt).
		Msg("Failed to send location")
}

func (LogReporter) NoFix(ctx context.Context, owner string) {
	logging.Ctx(ctx).Info().Str("owner", logging.RedactOwner(owner)).Msg("No location fix available, skipping cycle")
}
