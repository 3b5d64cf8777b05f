// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Broker is satisfied by *location.EmbeddedBroker.
type Broker interface {
	Running() bool
	Shutdown()
}

// BrokerStarter starts a fresh broker. It is called on every (re)start.
type BrokerStarter func() (Broker, error)

// ErrBrokerStopped is returned when the broker exits on its own.
var ErrBrokerStopped = errors.New("embedded broker stopped unexpectedly")

const defaultBrokerCheck = 5 * time.Second

// BrokerService runs the embedded location bus. Subscribers reconnect on
// their own, so a restart here is invisible to the tracker beyond a gap.
type BrokerService struct {
	start      BrokerStarter
	checkEvery time.Duration
}

// NewBrokerService creates the service. checkEvery is how often liveness is
// checked; non-positive means 5s.
func NewBrokerService(start BrokerStarter, checkEvery time.Duration) *BrokerService {
	if checkEvery <= 0 {
		checkEvery = defaultBrokerCheck
	}
	return &BrokerService{start: start, checkEvery: checkEvery}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	broker, err := s.start()
	if err != nil {
		return fmt.Errorf("start embedded broker: %w", err)
	}
	defer broker.Shutdown()

	ticker := time.NewTicker(s.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !broker.Running() {
				return ErrBrokerStopped
			}
		}
	}
}

func (s *BrokerService) String() string {
	return "location-bus"
}
