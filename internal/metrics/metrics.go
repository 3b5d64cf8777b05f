// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels shared by remote and tick metrics.
const (
	ResultSuccess         = "success"
	ResultUnauthenticated = "unauthenticated"
	ResultNetwork         = "network"
	ResultRejected        = "rejected"
	ResultNoFix           = "no_fix"
	ResultError           = "error"
)

var (
	// Remote Location Service Metrics
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_remote_requests_total",
			Help: "Total number of requests to the remote location service",
		},
		[]string{"operation", "result"}, // operation: "submit", "fetch_history"
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackline_remote_request_duration_seconds",
			Help:    "Remote location service request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"operation"},
	)

	RemoteRateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_remote_rate_limit_waits_total",
			Help: "Requests that had to wait for the outbound rate limiter",
		},
		[]string{"operation"},
	)

	// Tracker Metrics
	TrackerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_tracker_ticks_total",
			Help: "Tracker ticks by outcome",
		},
		[]string{"result"},
	)

	TrackerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackline_tracker_state",
			Help: "Tracker state (0=stopped, 1=starting, 2=running, 3=stopping)",
		},
	)

	TrackerSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_tracker_sessions_total",
			Help: "Tracking session lifecycle events",
		},
		[]string{"event"}, // event: "started", "stopped", "revoked"
	)

	TrackerIntervalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackline_tracker_interval_seconds",
			Help: "Submission interval of the active session (0 when stopped)",
		},
	)

	// Location Provider Metrics
	LocationSamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_location_samples_total",
			Help: "Location samples received from providers",
		},
		[]string{"source"},
	)

	LocationProviderConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trackline_location_provider_connected",
			Help: "Whether the location provider feed is connected (1) or not (0)",
		},
		[]string{"source"},
	)

	LocationProviderReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_location_provider_reconnects_total",
			Help: "Reconnect attempts made by streaming location providers",
		},
		[]string{"source"},
	)

	// Offline Cache Metrics
	CacheMergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackline_cache_merges_total",
			Help: "Merges applied to the offline cache",
		},
	)

	CacheRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackline_cache_records",
			Help: "Current number of records in the offline cache",
		},
	)

	CacheCorruptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackline_cache_corrupt_total",
			Help: "Times the persisted cache blob could not be decoded",
		},
	)

	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackline_cache_write_errors_total",
			Help: "Failed writes of the offline cache blob",
		},
	)

	CacheMigrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackline_cache_migrations_total",
			Help: "Legacy list-schema cache blobs migrated to the map schema",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trackline_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trackline_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Control API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_api_requests_total",
			Help: "Total number of control API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackline_api_request_duration_seconds",
			Help:    "Control API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackline_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordRemoteRequest records one remote call with its classified result.
func RecordRemoteRequest(operation, result string, duration time.Duration) {
	RemoteRequestsTotal.WithLabelValues(operation, result).Inc()
	RemoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTrackerTick records the outcome of one tracker tick.
func RecordTrackerTick(result string) {
	TrackerTicksTotal.WithLabelValues(result).Inc()
}

// SetTrackerState publishes the tracker state and the active interval.
func SetTrackerState(state int, interval time.Duration) {
	TrackerState.Set(float64(state))
	TrackerIntervalSeconds.Set(interval.Seconds())
}

// RecordSessionEvent records a tracking session lifecycle event.
func RecordSessionEvent(event string) {
	TrackerSessionsTotal.WithLabelValues(event).Inc()
}

// RecordLocationSample records a sample delivered by a provider.
func RecordLocationSample(source string) {
	LocationSamplesTotal.WithLabelValues(source).Inc()
}

// SetProviderConnected flips the connection gauge for a streaming provider.
func SetProviderConnected(source string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	LocationProviderConnected.WithLabelValues(source).Set(v)
}

// RecordCacheMerge records a successful cache merge and the resulting size.
func RecordCacheMerge(size int) {
	CacheMergesTotal.Inc()
	CacheRecords.Set(float64(size))
}

// RecordAPIRequest records an API request with its status code and duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
