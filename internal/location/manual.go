// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/trackline/internal/metrics"
)

// SourceManual labels samples pushed through ManualProvider.
const SourceManual = "manual"

// ManualProvider is fed by Push. The control API forwards fixes posted by the
// host application to it.
type ManualProvider struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]*manualSub
	revoked bool
	latest  *Sample
	now     func() time.Time
}

type manualSub struct {
	*subscription
	onSample func(Sample)
}

// NewManualProvider creates an empty ManualProvider.
func NewManualProvider() *ManualProvider {
	return &ManualProvider{subs: make(map[int]*manualSub), now: time.Now}
}

// Subscribe registers onSample and replays the latest sample to it, the way a
// fused provider hands out its last known fix. It fails with
// ErrPermissionRevoked while the provider is revoked.
func (p *ManualProvider) Subscribe(ctx context.Context, onSample func(Sample)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.revoked {
		p.mu.Unlock()
		return nil, ErrPermissionRevoked
	}

	id := p.nextID
	p.nextID++
	done := make(chan struct{})
	sub := &manualSub{onSample: onSample}
	sub.subscription = newSubscription(func() error {
		close(done)
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		return nil
	})
	p.subs[id] = sub
	latest := p.latest
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-done:
		}
	}()

	if latest != nil {
		onSample(*latest)
	}
	return sub, nil
}

// Push delivers s to every subscriber. A zero Time is stamped with now.
// It returns the number of subscribers reached.
func (p *ManualProvider) Push(s Sample) int {
	if s.Time.IsZero() {
		s.Time = p.now().UTC()
	}

	p.mu.Lock()
	if p.revoked {
		p.mu.Unlock()
		return 0
	}
	p.latest = &s
	targets := make([]func(Sample), 0, len(p.subs))
	for _, sub := range p.subs {
		targets = append(targets, sub.onSample)
	}
	p.mu.Unlock()

	metrics.RecordLocationSample(SourceManual)
	for _, fn := range targets {
		fn(s)
	}
	return len(targets)
}

// Latest returns the last pushed sample.
func (p *ManualProvider) Latest() (Sample, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Sample{}, false
	}
	return *p.latest, true
}

// Revoke simulates the device withdrawing location permission. Every
// subscriber receives ErrPermissionRevoked and is dropped.
func (p *ManualProvider) Revoke() {
	p.mu.Lock()
	p.revoked = true
	subs := p.subs
	p.subs = make(map[int]*manualSub)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.report(ErrPermissionRevoked)
	}
}

// Grant re-enables subscriptions after Revoke.
func (p *ManualProvider) Grant() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = false
}

// Subscribers returns the number of live subscriptions.
func (p *ManualProvider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
