// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockCollector struct {
	runs  atomic.Int32
	ratio atomic.Value
	err   error
}

func (m *mockCollector) RunValueLogGC(discardRatio float64) error {
	m.runs.Add(1)
	m.ratio.Store(discardRatio)
	return m.err
}

func TestStoreGCService_RunsOnTicker(t *testing.T) {
	t.Parallel()
	coll := &mockCollector{err: errors.New("transient")}
	svc := NewStoreGCService(coll, 5*time.Millisecond, 0.7)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for coll.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if coll.runs.Load() < 3 {
		t.Errorf("GC ran %d times, want at least 3 despite errors", coll.runs.Load())
	}
	if r, _ := coll.ratio.Load().(float64); r != 0.7 {
		t.Errorf("discard ratio = %v, want 0.7", r)
	}
}

func TestNewStoreGCService_Defaults(t *testing.T) {
	t.Parallel()
	svc := NewStoreGCService(&mockCollector{}, 0, 1.5)
	if svc.interval != DefaultGCInterval || svc.discardRatio != DefaultGCDiscardRatio {
		t.Errorf("defaults = %v / %v", svc.interval, svc.discardRatio)
	}
}
