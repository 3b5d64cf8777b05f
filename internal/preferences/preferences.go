// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package preferences

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/store"
	"github.com/tomtom215/trackline/internal/validation"
)

// SessionKey is the store key of the persisted tracking session.
const SessionKey = "tracking_session"

// Store persists the tracking session so scheduling survives a restart.
type Store struct {
	kv store.KV
}

// New creates a Store backed by kv.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted session. ok is false when nothing usable is
// stored; an unreadable blob is logged and treated as absent.
func (s *Store) Load(ctx context.Context) (session models.TrackingSession, ok bool, err error) {
	blob, found, err := s.kv.Get(ctx, SessionKey)
	if err != nil {
		return models.TrackingSession{}, false, fmt.Errorf("load tracking session: %w", err)
	}
	if !found || blob == "" {
		return models.TrackingSession{}, false, nil
	}

	if err := json.Unmarshal([]byte(blob), &session); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Discarding unreadable tracking session")
		return models.TrackingSession{}, false, nil
	}
	if verr := validation.ValidateStruct(session); verr != nil {
		logging.Ctx(ctx).Warn().Err(verr).Msg("Discarding invalid tracking session")
		return models.TrackingSession{}, false, nil
	}
	return session, true, nil
}

// Save validates and persists session.
func (s *Store) Save(ctx context.Context, session models.TrackingSession) error {
	if verr := validation.ValidateStruct(session); verr != nil {
		return verr
	}
	blob, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode tracking session: %w", err)
	}
	if err := s.kv.Put(ctx, SessionKey, string(blob)); err != nil {
		return fmt.Errorf("save tracking session: %w", err)
	}
	return nil
}

// MarkInactive clears the Active flag, keeping owner and interval for the
// next start. It is a no-op when nothing is stored.
func (s *Store) MarkInactive(ctx context.Context) error {
	session, ok, err := s.Load(ctx)
	if err != nil || !ok || !session.Active {
		return err
	}
	session.Active = false
	return s.Save(ctx, session)
}

// LastInterval returns the interval of the persisted session, or fallback
// when none is stored.
func (s *Store) LastInterval(ctx context.Context, fallback int) int {
	session, ok, err := s.Load(ctx)
	if err != nil || !ok {
		return fallback
	}
	return session.IntervalMinutes
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear tracking session: %w", err)
	}
	return nil
}
