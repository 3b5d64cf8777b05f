// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSimulated is returned by MockService while it has failures left.
var ErrSimulated = errors.New("simulated failure")

// MockService is a suture.Service whose behavior tests can script.
type MockService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	failures atomic.Int32

	mu       sync.Mutex
	failLeft int32
	err      error
	running  chan struct{}
}

// NewMockService creates a service that runs until its context ends.
func NewMockService(name string) *MockService {
	return &MockService{name: name, running: make(chan struct{}, 64)}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	m.mu.Lock()
	fail := m.failLeft > 0
	if fail {
		m.failLeft--
	}
	err := m.err
	m.mu.Unlock()

	if fail {
		m.failures.Add(1)
		return ErrSimulated
	}
	if err != nil {
		return err
	}

	select {
	case m.running <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

// FailTimes makes the next n calls to Serve fail immediately.
func (m *MockService) FailTimes(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLeft = int32(n)
}

// SetError makes every later Serve return err immediately.
func (m *MockService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Running receives once each time Serve settles into its steady state.
func (m *MockService) Running() <-chan struct{} {
	return m.running
}

// StartCount returns how many times Serve was entered.
func (m *MockService) StartCount() int32 { return m.starts.Load() }

// StopCount returns how many times Serve returned.
func (m *MockService) StopCount() int32 { return m.stops.Load() }

// FailureCount returns how many scripted failures were served.
func (m *MockService) FailureCount() int32 { return m.failures.Load() }

func (m *MockService) String() string {
	return m.name
}
