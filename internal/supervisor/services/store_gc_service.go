// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package services

import (
	"context"
	"time"

	"github.com/tomtom215/trackline/internal/logging"
)

// ValueLogCollector is satisfied by *store.BadgerStore.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) error
}

const (
	DefaultGCInterval     = 10 * time.Minute
	DefaultGCDiscardRatio = 0.5
)

// StoreGCService periodically reclaims space in the Badger value log.
type StoreGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
}

// NewStoreGCService creates the service. Zero values take the defaults.
func NewStoreGCService(store ValueLogCollector, interval time.Duration, discardRatio float64) *StoreGCService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = DefaultGCDiscardRatio
	}
	return &StoreGCService{store: store, interval: interval, discardRatio: discardRatio}
}

// Serve implements suture.Service. GC errors are logged and the loop keeps
// going; the store reports "nothing to rewrite" as success.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunValueLogGC(s.discardRatio); err != nil {
				logging.Warn().Err(err).Msg("Value log GC failed")
			}
		}
	}
}

func (s *StoreGCService) String() string {
	return "store-gc"
}
