// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/trackline/internal/cache"
	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/preferences"
	"github.com/tomtom215/trackline/internal/sync"
)

// ErrNoOwner is returned when neither the caller nor the configuration
// names an owner identity.
var ErrNoOwner = errors.New("engine: owner identity is required")

// BreakerStater reports a circuit breaker state for Status.
type BreakerStater interface {
	State() string
}

// Config wires an Engine.
type Config struct {
	Client      sync.LocationClient
	Location    location.Provider
	Identity    identity.Provider
	Cache       *cache.OfflineCache
	Preferences *preferences.Store
	Reporter    sync.Reporter

	// DefaultOwner and DefaultInterval fill in omitted arguments.
	DefaultOwner    string
	DefaultInterval int
}

// Status is a point-in-time summary of the engine.
type Status struct {
	Tracking      bool                    `json:"tracking"`
	State         string                  `json:"state"`
	Session       *models.TrackingSession `json:"session,omitempty"`
	Stats         sync.TrackerStats       `json:"stats"`
	CachedRecords int                     `json:"cached_records"`
	Breaker       string                  `json:"circuit_breaker,omitempty"`
	LatestFix     *location.Sample        `json:"latest_fix,omitempty"`
}

// Engine is the control surface the host application drives.
type Engine struct {
	tracker      *sync.Tracker
	reconciler   *sync.Reconciler
	cache        *cache.OfflineCache
	prefs        *preferences.Store
	breaker      BreakerStater
	location     location.Provider
	defaultOwner string
	defaultIntv  int
}

// New builds an Engine and its Tracker.
func New(cfg Config) *Engine {
	e := &Engine{
		reconciler:   sync.NewReconciler(cfg.Client, cfg.Cache),
		cache:        cfg.Cache,
		prefs:        cfg.Preferences,
		location:     cfg.Location,
		defaultOwner: cfg.DefaultOwner,
		defaultIntv:  cfg.DefaultInterval,
	}
	if bs, ok := cfg.Client.(BreakerStater); ok {
		e.breaker = bs
	}
	e.tracker = sync.NewTracker(sync.TrackerConfig{
		Client:         cfg.Client,
		Location:       cfg.Location,
		Identity:       cfg.Identity,
		Reporter:       cfg.Reporter,
		OnSessionEnded: e.sessionEnded,
	})
	return e
}

// StartTracking starts periodic submission for owner. An empty owner falls
// back to the configured default; intervalMinutes 0 reuses the last
// persisted interval.
func (e *Engine) StartTracking(ctx context.Context, owner string, intervalMinutes int) error {
	owner, err := e.resolveOwner(owner)
	if err != nil {
		return err
	}
	if intervalMinutes == 0 {
		intervalMinutes = e.defaultInterval(ctx)
	}

	if err := e.tracker.Start(ctx, owner, intervalMinutes); err != nil {
		return err
	}

	session, _ := e.tracker.Session()
	if err := e.prefs.Save(ctx, session); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist tracking session")
	}
	return nil
}

// StopTracking stops the active session and clears the persisted flag.
func (e *Engine) StopTracking(ctx context.Context) error {
	if err := e.tracker.Stop(); err != nil {
		return err
	}
	if err := e.prefs.MarkInactive(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear persisted tracking session")
	}
	return nil
}

// IsTracking reports whether a session is active.
func (e *Engine) IsTracking() bool {
	return e.tracker.IsRunning()
}

// GetHistory returns merged history for owner, optionally filtered to one
// date (YYYY-MM-DD). A fetch failure returns the cached view marked Stale
// together with the error.
func (e *Engine) GetHistory(ctx context.Context, owner, date string) (sync.HistoryResult, error) {
	owner, err := e.resolveOwner(owner)
	if err != nil {
		return sync.HistoryResult{Records: []models.LocationRecord{}, Empty: true}, err
	}

	result, err := e.reconciler.Load(ctx, owner)
	if date != "" {
		result.Records = sync.FilterByDate(result.Records, date)
		result.Empty = len(result.Records) == 0
	}
	return result, err
}

// SendTestLocation submits one record immediately. When lat and lng are both
// zero the latest known fix is used.
func (e *Engine) SendTestLocation(ctx context.Context, owner string, lat, lng float64) (models.LocationRecord, error) {
	owner, err := e.resolveOwner(owner)
	if err != nil {
		return models.LocationRecord{}, err
	}

	sample := location.Sample{Latitude: lat, Longitude: lng, Time: time.Now().UTC()}
	if !sample.HasFix() {
		latest, ok := e.latestFix()
		if !ok {
			return models.LocationRecord{}, sync.ErrNoFixAvailable
		}
		sample = latest
	}
	return e.tracker.SubmitNow(ctx, owner, sample)
}

// Status summarizes the engine.
func (e *Engine) Status(ctx context.Context) Status {
	st := Status{
		Tracking:      e.tracker.IsRunning(),
		State:         e.tracker.State().String(),
		Stats:         e.tracker.Stats(),
		CachedRecords: e.cache.Len(ctx),
	}
	if session, ok := e.tracker.Session(); ok {
		st.Session = &session
	}
	if e.breaker != nil {
		st.Breaker = e.breaker.State()
	}
	if fix, ok := e.latestFix(); ok {
		st.LatestFix = &fix
	}
	return st
}

// Rearm restarts a session that was active when the process last exited.
// It reports whether tracking was resumed.
func (e *Engine) Rearm(ctx context.Context) (bool, error) {
	session, ok, err := e.prefs.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok || !session.Active {
		return false, nil
	}
	if e.tracker.IsRunning() {
		return false, nil
	}

	if err := e.tracker.Start(ctx, session.OwnerIdentity, session.IntervalMinutes); err != nil {
		if errors.Is(err, location.ErrPermissionRevoked) {
			if mErr := e.prefs.MarkInactive(ctx); mErr != nil {
				logging.Ctx(ctx).Warn().Err(mErr).Msg("Failed to clear persisted tracking session")
			}
		}
		return false, fmt.Errorf("rearm tracking for %s: %w", session.OwnerIdentity, err)
	}

	logging.Ctx(ctx).Info().
		Str("owner", logging.RedactOwner(session.OwnerIdentity)).
		Int("interval_minutes", session.IntervalMinutes).
		Msg("Tracking re-armed from persisted session")
	return true, nil
}

// ClearCache drops the offline history cache. When no session is running the
// persisted session is forgotten too, so a signed-out user is not re-armed on
// the next start.
func (e *Engine) ClearCache(ctx context.Context) error {
	if err := e.cache.Clear(ctx); err != nil {
		return err
	}
	if e.tracker.IsRunning() {
		return nil
	}
	return e.prefs.Clear(ctx)
}

// Close stops tracking and waits for in-flight submissions. The persisted
// session is left as is so the next start can re-arm it.
func (e *Engine) Close() error {
	return e.tracker.Close()
}

func (e *Engine) sessionEnded(session models.TrackingSession, reason error) {
	ctx := context.Background()
	if err := e.prefs.MarkInactive(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to clear persisted tracking session")
	}
	logging.Warn().Err(reason).Str("owner", logging.RedactOwner(session.OwnerIdentity)).Msg("Tracking session ended, restart required")
}

func (e *Engine) resolveOwner(owner string) (string, error) {
	if owner != "" {
		return owner, nil
	}
	if e.defaultOwner != "" {
		return e.defaultOwner, nil
	}
	return "", ErrNoOwner
}

func (e *Engine) defaultInterval(ctx context.Context) int {
	fallback := models.DefaultIntervalMinutes
	if models.ValidInterval(e.defaultIntv) {
		fallback = e.defaultIntv
	}
	return e.prefs.LastInterval(ctx, fallback)
}

// latestFix prefers the tracker's sample and falls back to providers that
// remember their last fix.
func (e *Engine) latestFix() (location.Sample, bool) {
	if s, ok := e.tracker.LatestSample(); ok && s.HasFix() {
		return s, true
	}
	if lp, ok := e.location.(interface{ Latest() (location.Sample, bool) }); ok {
		if s, ok := lp.Latest(); ok && s.HasFix() {
			return s, true
		}
	}
	return location.Sample{}, false
}
