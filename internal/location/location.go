// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sampling cadence requested from device feeds.
const (
	DefaultUpdateInterval = 10 * time.Second
	FastestUpdateInterval = 5 * time.Second
)

// ErrPermissionRevoked is reported on Subscription.Errors when the device
// withdraws location access. The subscription delivers nothing afterwards.
var ErrPermissionRevoked = errors.New("location: permission revoked")

// Sample is one position fix.
type Sample struct {
	Latitude  float64   `json:"latitude" validate:"latitude"`
	Longitude float64   `json:"longitude" validate:"longitude"`
	Time      time.Time `json:"time"`
}

// HasFix reports whether the sample carries a real position. (0, 0) is the
// "no fix" marker.
func (s Sample) HasFix() bool {
	return s.Latitude != 0 || s.Longitude != 0
}

// Provider delivers samples to a callback until the subscription is closed
// or ctx is cancelled. The callback must not block.
type Provider interface {
	Subscribe(ctx context.Context, onSample func(Sample)) (Subscription, error)
}

// Subscription is a live feed registration.
type Subscription interface {
	// Errors reports terminal feed errors such as ErrPermissionRevoked.
	Errors() <-chan error

	// Close releases the feed. It is safe to call more than once.
	Close() error
}

// subscription is the shared Subscription implementation. closeFn runs once.
type subscription struct {
	errs    chan error
	once    sync.Once
	closeFn func() error
	err     error
}

func newSubscription(closeFn func() error) *subscription {
	return &subscription{errs: make(chan error, 1), closeFn: closeFn}
}

func (s *subscription) Errors() <-chan error { return s.errs }

func (s *subscription) Close() error {
	s.once.Do(func() {
		if s.closeFn != nil {
			s.err = s.closeFn()
		}
	})
	return s.err
}

// report delivers err without blocking. Only the first terminal error is kept.
func (s *subscription) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}
