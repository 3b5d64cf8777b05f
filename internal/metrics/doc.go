// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package metrics defines the Prometheus collectors exported by Trackline.

All collectors are registered on the default registry through promauto and
served by the control API at GET /metrics.

Metric families:

	trackline_remote_*            remote location service calls
	trackline_tracker_*           scheduler ticks, state and sessions
	trackline_location_*          provider samples and feed connectivity
	trackline_cache_*             offline cache merges, size and corruption
	trackline_circuit_breaker_*   gobreaker state per breaker name
	trackline_api_*               control API traffic

Example queries:

	# Submit failure ratio over 1h
	sum(rate(trackline_remote_requests_total{operation="submit",result!="success"}[1h]))
	  / sum(rate(trackline_remote_requests_total{operation="submit"}[1h]))

	# Ticks skipped for lack of a fix
	increase(trackline_tracker_ticks_total{result="no_fix"}[1d])
*/
package metrics
