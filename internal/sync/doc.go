// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package sync moves location records between this device and the remote
location service.

Key Components:

  - HTTPClient: REST client for POST/GET /location with per-call tokens,
    an outbound rate limiter and typed errors (SyncError)
  - CircuitBreakerClient: sony/gobreaker wrapper; an open circuit fails fast
    as a network error
  - Tracker: the periodic submission scheduler, one session at a time
  - Reconciler: fetches remote history, merges it into the offline cache
    and returns the newest-first view
  - Reporter: sink for per-tick outcomes (LogReporter by default)

Error Handling:

Every remote failure is a *SyncError whose Kind matches one of the
sentinels:

	errors.Is(err, sync.ErrUnauthenticated) // no token, 401, 403
	errors.Is(err, sync.ErrNetwork)         // transport, timeout, open circuit
	errors.Is(err, sync.ErrServerRejected)  // other non-2xx, bad body

Submit failures never stop the Tracker; they are reported and the next tick
tries again.

Thread Safety:

All exported types are safe for concurrent use.
*/
package sync
