// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package models

import (
	"fmt"
	"sort"
)

// mapURLFormat is the web map link used for records with a usable fix.
const mapURLFormat = "https://www.google.com/maps?q=%f,%f"

// LocationRecord is one location sample tied to an owner and an insertion timestamp.
//
// JSON field names follow the remote location service wire format:
//
//	{
//	  "latitude": 37.7749,
//	  "longitude": -122.4194,
//	  "userEmail": "alice@example.com",
//	  "insertionTimestamp": "2024-01-01T10:00:00Z",
//	  "userId": "5f1c..."
//	}
//
// Records are values: once built they are never edited. A cache merge
// replaces an entry under a colliding DedupKey rather than mutating it.
type LocationRecord struct {
	Latitude      float64 `json:"latitude" validate:"latitude"`
	Longitude     float64 `json:"longitude" validate:"longitude"`
	OwnerIdentity string  `json:"userEmail"`
	InsertedAt    string  `json:"insertionTimestamp"`
	UserID        string  `json:"userId,omitempty"`
}

// DedupKey returns the cache key for the record: the user ID (or the owner
// identity when no user ID is known) joined with the insertion timestamp.
func (r LocationRecord) DedupKey() string {
	owner := r.UserID
	if owner == "" {
		owner = r.OwnerIdentity
	}
	return owner + "_" + r.InsertedAt
}

// HasFix reports whether the record carries a real position.
// Exactly (0, 0) is the sensor's "no fix" value.
func (r LocationRecord) HasFix() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// MapURL returns a web map link for the record, or "" when there is no fix.
func (r LocationRecord) MapURL() string {
	if !r.HasFix() {
		return ""
	}
	return fmt.Sprintf(mapURLFormat, r.Latitude, r.Longitude)
}

// DatePortion extracts the calendar date from InsertedAt: the text before the
// first space, or the first 10 characters when there is no space.
// ok is false when the timestamp is empty or too short to carry a date.
func (r LocationRecord) DatePortion() (date string, ok bool) {
	ts := r.InsertedAt
	if ts == "" {
		return "", false
	}
	for i := 0; i < len(ts); i++ {
		if ts[i] == ' ' {
			if i == 0 {
				return "", false
			}
			return ts[:i], true
		}
	}
	if len(ts) < 10 {
		return "", false
	}
	return ts[:10], true
}

// SortByInsertedAtDesc orders records most recent first using plain string
// comparison of InsertedAt. Ties keep their relative order.
func SortByInsertedAtDesc(records []LocationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].InsertedAt > records[j].InsertedAt
	})
}
