// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package models defines the data structures shared across Trackline.

Key Components:

  - LocationRecord: one location sample (owner, timestamp, coordinates)
  - TrackingSession: the persisted tracking preference
  - APIResponse: control API response envelope

Timestamps:

InsertedAt is an opaque, sortable string. All values produced by Trackline
use TimestampLayout (zero-padded UTC ISO-8601), so lexicographic order is
chronological order. Remote values in other encodings are passed through
NormalizeTimestamp on ingest.

Deduplication:

Two records describe the same sample when their DedupKey matches
(user ID or owner identity, an underscore, then InsertedAt).
*/
package models
