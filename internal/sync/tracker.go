// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
tracker.go - Periodic Location Submission

State machine:

	Stopped --Start--> Starting --subscribed--> Running --Stop--> Stopping --> Stopped
	                       |                       |
	                       +--subscribe failed-----+--permission revoked--> Stopped

At most one session is active. Start while a session is active stops it
first. Each tick reads the most recent sample and, when it has a fix, hands
the submission to a worker goroutine so a slow or failing remote call never
delays the ticker. Submissions run detached from the session context: Stop
does not cancel an in-flight call, Close waits for them.
*/

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
	"github.com/tomtom215/trackline/internal/models"
)

// TrackerState is the scheduler lifecycle state.
type TrackerState int32

const (
	StateStopped TrackerState = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s TrackerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// TrackerConfig wires a Tracker.
type TrackerConfig struct {
	Client   LocationClient
	Location location.Provider
	Identity identity.Provider

	// Reporter defaults to LogReporter.
	Reporter Reporter

	// OnSessionEnded fires when a session ends without Stop being called,
	// currently only on permission revocation. It must not call Start or Stop.
	OnSessionEnded func(session models.TrackingSession, reason error)
}

// TrackerStats summarizes submission outcomes since process start.
type TrackerStats struct {
	Submitted   uint64    `json:"submitted"`
	Failed      uint64    `json:"failed"`
	NoFix       uint64    `json:"no_fix"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Tracker schedules location submissions.
type Tracker struct {
	client         LocationClient
	provider       location.Provider
	identity       identity.Provider
	reporter       Reporter
	onSessionEnded func(models.TrackingSession, error)

	// opMu serializes Start and Stop.
	opMu sync.Mutex

	mu      sync.Mutex
	state   TrackerState
	current *trackingSession

	latestMu sync.Mutex
	latest   *location.Sample

	statsMu sync.Mutex
	stats   TrackerStats

	inflight sync.WaitGroup
	closed   atomic.Bool

	// intervalUnit scales IntervalMinutes; tests shrink it.
	intervalUnit time.Duration
	now          func() time.Time
}

type trackingSession struct {
	info   models.TrackingSession
	cancel context.CancelFunc
	done   chan struct{}
	sub    location.Subscription
}

// NewTracker creates a stopped Tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Tracker{
		client:         cfg.Client,
		provider:       cfg.Location,
		identity:       cfg.Identity,
		reporter:       reporter,
		onSessionEnded: cfg.OnSessionEnded,
		intervalUnit:   time.Minute,
		now:            time.Now,
	}
}

// Start begins a session for owner, submitting every intervalMinutes. The
// session outlives ctx; only Stop, Close or permission revocation ends it.
func (t *Tracker) Start(ctx context.Context, owner string, intervalMinutes int) error {
	if !models.ValidInterval(intervalMinutes) {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, intervalMinutes)
	}
	if owner == "" {
		return ErrMissingOwner
	}
	if t.closed.Load() {
		return errors.New("sync: tracker is closed")
	}

	t.opMu.Lock()
	defer t.opMu.Unlock()

	if prev, ok := t.Session(); ok {
		logging.Ctx(ctx).Info().Str("owner", logging.RedactOwner(prev.OwnerIdentity)).Msg("Replacing active tracking session")
		t.stopLocked(ctx)
		metrics.RecordSessionEvent("replaced")
	}

	interval := time.Duration(intervalMinutes) * t.intervalUnit
	t.setState(StateStarting, interval)

	t.latestMu.Lock()
	t.latest = nil
	t.latestMu.Unlock()

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := t.provider.Subscribe(sessCtx, t.onSample)
	if err != nil {
		cancel()
		t.setState(StateStopped, 0)
		metrics.RecordSessionEvent("start_failed")
		return fmt.Errorf("subscribe to location updates: %w", err)
	}

	s := &trackingSession{
		info: models.TrackingSession{
			OwnerIdentity:   owner,
			IntervalMinutes: intervalMinutes,
			Active:          true,
			StartedAt:       t.now().UTC(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
		sub:    sub,
	}

	t.mu.Lock()
	t.current = s
	t.state = StateRunning
	t.mu.Unlock()
	metrics.SetTrackerState(int(StateRunning), interval)
	metrics.RecordSessionEvent("started")

	go t.run(sessCtx, s, interval)

	logging.Ctx(ctx).Info().
		Str("owner", logging.RedactOwner(owner)).
		Int("interval_minutes", intervalMinutes).
		Msg("Location tracking started")
	return nil
}

// Stop ends the active session. It is a no-op when nothing is running.
// In-flight submissions are not cancelled.
func (t *Tracker) Stop() error {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	if t.stopLocked(context.Background()) {
		metrics.RecordSessionEvent("stopped")
		logging.Info().Msg("Location tracking stopped")
	}
	return nil
}

// stopLocked tears down the current session. Caller holds opMu.
func (t *Tracker) stopLocked(ctx context.Context) bool {
	t.mu.Lock()
	s := t.current
	if s == nil {
		t.mu.Unlock()
		return false
	}
	t.state = StateStopping
	t.mu.Unlock()
	metrics.SetTrackerState(int(StateStopping), 0)

	s.cancel()
	<-s.done
	if err := s.sub.Close(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close location subscription")
	}

	t.mu.Lock()
	if t.current == s {
		t.current = nil
	}
	t.state = StateStopped
	t.mu.Unlock()
	metrics.SetTrackerState(int(StateStopped), 0)
	return true
}

// Close stops tracking and waits for in-flight submissions.
func (t *Tracker) Close() error {
	t.closed.Store(true)
	err := t.Stop()
	t.inflight.Wait()
	return err
}

// IsRunning reports whether a session is active.
func (t *Tracker) IsRunning() bool {
	return t.State() == StateRunning
}

// State returns the lifecycle state.
func (t *Tracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Session returns the active session.
func (t *Tracker) Session() (models.TrackingSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return models.TrackingSession{}, false
	}
	return t.current.info, true
}

// LatestSample returns the most recent sample of the active session.
func (t *Tracker) LatestSample() (location.Sample, bool) {
	t.latestMu.Lock()
	defer t.latestMu.Unlock()
	if t.latest == nil {
		return location.Sample{}, false
	}
	return *t.latest, true
}

// Stats returns a snapshot of submission outcomes.
func (t *Tracker) Stats() TrackerStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// SubmitNow submits sample for owner synchronously, outside the schedule.
func (t *Tracker) SubmitNow(ctx context.Context, owner string, sample location.Sample) (models.LocationRecord, error) {
	if owner == "" {
		return models.LocationRecord{}, ErrMissingOwner
	}
	if !sample.HasFix() {
		return models.LocationRecord{}, ErrNoFixAvailable
	}
	record := t.buildRecord(ctx, owner, sample)
	err := t.client.Submit(ctx, record)
	t.recordOutcome(ctx, record, err)
	return record, err
}

func (t *Tracker) onSample(s location.Sample) {
	t.latestMu.Lock()
	t.latest = &s
	t.latestMu.Unlock()
}

func (t *Tracker) setState(state TrackerState, interval time.Duration) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	metrics.SetTrackerState(int(state), interval)
}

// run is the session loop. It owns s.done.
func (t *Tracker) run(ctx context.Context, s *trackingSession, interval time.Duration) {
	defer close(s.done)

	t.tick(ctx, s.info.OwnerIdentity)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.sub.Errors():
			if errors.Is(err, location.ErrPermissionRevoked) {
				t.endSession(ctx, s, err)
				return
			}
			logging.Ctx(ctx).Warn().Err(err).Msg("Location feed error")
		case <-ticker.C:
			t.tick(ctx, s.info.OwnerIdentity)
		}
	}
}

// endSession ends s from inside its own loop.
func (t *Tracker) endSession(ctx context.Context, s *trackingSession, reason error) {
	t.mu.Lock()
	owned := t.current == s
	if owned {
		t.current = nil
		t.state = StateStopped
	}
	t.mu.Unlock()

	s.cancel()
	_ = s.sub.Close()
	if !owned {
		return
	}

	metrics.SetTrackerState(int(StateStopped), 0)
	metrics.RecordSessionEvent("revoked")
	logging.Ctx(ctx).Warn().Err(reason).Str("owner", logging.RedactOwner(s.info.OwnerIdentity)).Msg("Location tracking ended")

	if t.onSessionEnded != nil {
		t.onSessionEnded(s.info, reason)
	}
}

// tick performs one scheduled submission attempt.
func (t *Tracker) tick(ctx context.Context, owner string) {
	sample, ok := t.LatestSample()
	if !ok || !sample.HasFix() {
		t.recordOutcome(ctx, models.LocationRecord{OwnerIdentity: owner}, ErrNoFixAvailable)
		return
	}

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		submitCtx := logging.ContextWithNewCorrelationID(context.WithoutCancel(ctx))
		record := t.buildRecord(submitCtx, owner, sample)
		err := t.client.Submit(submitCtx, record)
		t.recordOutcome(submitCtx, record, err)
	}()
}

// buildRecord stamps the record with the sample time, falling back to now.
func (t *Tracker) buildRecord(ctx context.Context, owner string, sample location.Sample) models.LocationRecord {
	ts := sample.Time
	if ts.IsZero() {
		ts = t.now()
	}
	record := models.LocationRecord{
		Latitude:      sample.Latitude,
		Longitude:     sample.Longitude,
		OwnerIdentity: owner,
		InsertedAt:    models.FormatTimestamp(ts),
	}
	if t.identity != nil {
		if uid, err := t.identity.UserID(ctx); err == nil {
			record.UserID = uid
		}
	}
	return record
}

func (t *Tracker) recordOutcome(ctx context.Context, record models.LocationRecord, err error) {
	metrics.RecordTrackerTick(resultLabel(err))

	t.statsMu.Lock()
	now := t.now().UTC()
	switch {
	case err == nil:
		t.stats.Submitted++
		t.stats.LastAttempt = now
		t.stats.LastSuccess = now
		t.stats.LastError = ""
	case errors.Is(err, ErrNoFixAvailable):
		t.stats.NoFix++
	default:
		t.stats.Failed++
		t.stats.LastAttempt = now
		t.stats.LastError = err.Error()
	}
	t.statsMu.Unlock()

	switch {
	case err == nil:
		t.reporter.SubmitSucceeded(ctx, record)
	case errors.Is(err, ErrNoFixAvailable):
		t.reporter.NoFix(ctx, record.OwnerIdentity)
	default:
		t.reporter.SubmitFailed(ctx, record, err)
	}
}
