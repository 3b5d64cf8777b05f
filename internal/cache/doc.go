// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package cache implements the offline location cache.

OfflineCache holds every location record seen by the engine, deduplicated by
(user id or owner) + "_" + insertion timestamp. The whole set is stored as a
single JSON object under the key "cached_locations":

	{
	  "sub-123_2024-01-01T10:00:00Z": {
	    "latitude": 52.52,
	    "longitude": 13.405,
	    "userEmail": "alice@example.com",
	    "insertionTimestamp": "2024-01-01T10:00:00Z",
	    "userId": "sub-123"
	  }
	}

Older installations stored a JSON array of records. Such a blob is migrated
to the object form the first time it is read.

Failure handling:

  - A blob that cannot be decoded reads as an empty cache. It is counted in
    trackline_cache_corrupt_total and overwritten by the next merge.
  - A failed write is logged and returned from Merge; the tracking path
    ignores it.
  - A failed read leaves the cache unloaded so nothing overwrites data that
    may still be intact on disk.
*/
package cache
