// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package api serves the local control API over chi.

Routes (all JSON, wrapped in models.APIResponse):

	POST   /api/v1/tracking/start   {"owner", "interval_minutes"}
	POST   /api/v1/tracking/stop
	GET    /api/v1/tracking
	GET    /api/v1/history?owner=&date=YYYY-MM-DD
	POST   /api/v1/locations/test   {"owner", "latitude", "longitude"}
	POST   /api/v1/fixes            {"latitude", "longitude", "time"}
	DELETE /api/v1/cache
	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /metrics

Middleware: request IDs with logging context, real IP, panic recovery,
go-chi/cors, per-route Prometheus metrics and a go-chi/httprate limiter on
the /api/v1 routes (health checks are exempt).

Error mapping:

	400 VALIDATION_ERROR     bad body, interval outside 1..720, no owner
	401 UNAUTHENTICATED      identity provider has no valid session
	409 CONFLICT             no fix available, location permission revoked
	502 REMOTE_REJECTED      location service refused the request
	503 REMOTE_UNAVAILABLE   transport failure or open circuit

GET /history answers 502 on any fetch failure and still returns the cached
records in data.
*/
package api
