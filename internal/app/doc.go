// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

// Package app wires configuration into a running Trackline process: store,
// identity and location providers, the remote client (optionally behind a
// circuit breaker), the engine, the control API and the supervisor tree.
package app
