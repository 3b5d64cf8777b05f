// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
	"github.com/tomtom215/trackline/internal/models"
)

// BreakerName labels the location service breaker in metrics.
const BreakerName = "location-api"

// BreakerSettings tunes CircuitBreakerClient. Zero values take the defaults.
type BreakerSettings struct {
	MaxRequests uint32        // half-open trial requests, default 3
	Interval    time.Duration // closed-state count reset, default 1m
	Timeout     time.Duration // open to half-open, default 2m
	MinRequests uint32        // default 10
	FailureRate float64       // default 0.6
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRate == 0 {
		s.FailureRate = 0.6
	}
	return s
}

// CircuitBreakerClient wraps a LocationClient with a circuit breaker. Only
// transport failures and 5xx answers count against the breaker; auth and 4xx
// rejections are the caller's problem, not the service's. While the circuit
// is open calls fail fast with a KindNetwork error.
//
// The breaker runs on wall-clock time (sony/gobreaker), so tests that need
// to observe recovery use a short Timeout.
type CircuitBreakerClient struct {
	client LocationClient
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

var _ LocationClient = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps client.
func NewCircuitBreakerClient(client LocationClient, settings BreakerSettings) *CircuitBreakerClient {
	s := settings.withDefaults()
	cbName := BreakerName

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRate
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: countsAsSuccess,

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// countsAsSuccess decides which errors are the remote service's fault.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *SyncError
	if errors.As(err, &se) {
		return !se.Retryable()
	}
	return false
}

// execute runs fn through the breaker. Breaker rejections become KindNetwork.
func (cbc *CircuitBreakerClient) execute(op string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			metrics.RecordRemoteRequest(op, metrics.ResultNetwork, 0)
			logging.Warn().Err(err).Str("operation", op).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, &SyncError{Kind: KindNetwork, Op: op, Err: err}
		}
		if countsAsSuccess(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-checks a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// State returns the breaker state as a string.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// Submit posts a record with circuit breaker protection.
func (cbc *CircuitBreakerClient) Submit(ctx context.Context, record models.LocationRecord) error {
	_, err := cbc.execute(OpSubmit, func() (interface{}, error) {
		return nil, cbc.client.Submit(ctx, record)
	})
	return err
}

// FetchHistory fetches history with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchHistory(ctx context.Context, owner string) ([]models.LocationRecord, error) {
	return castResult[[]models.LocationRecord](cbc.execute(OpFetchHistory, func() (interface{}, error) {
		return cbc.client.FetchHistory(ctx, owner)
	}))
}
