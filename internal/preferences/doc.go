// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

// Package preferences persists the tracking session under the
// "tracking_session" key of the shared key-value store.
package preferences
