// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package store provides the key-value persistence used by Trackline.

Two implementations satisfy KV:

  - BadgerStore: durable storage on BadgerDB v4. Each Put and Remove is a
    single read-write transaction.
  - MemoryStore: a map guarded by a mutex, for tests and --in-memory runs
    where nothing should touch disk.

Keys in use:

	cached_locations   offline cache blob (internal/cache)
	tracking_session   persisted tracking session (internal/preferences)
*/
package store
