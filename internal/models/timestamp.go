// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package models

import (
	"strconv"
	"time"
)

// TimestampLayout is the canonical InsertedAt encoding: zero-padded UTC
// ISO-8601 at second precision. String order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// legacyLayout is the human-readable form older clients stored.
const legacyLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a canonical timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// NormalizeTimestamp converts known encodings (epoch milliseconds, RFC 3339
// with offset or fraction, the legacy "yyyy-MM-dd HH:mm:ss" layout) into the
// canonical layout. Anything else is returned unchanged; the value stays an
// opaque string.
func NormalizeTimestamp(s string) string {
	if s == "" {
		return s
	}
	if _, err := time.Parse(TimestampLayout, s); err == nil {
		return s
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 12 {
		return FormatTimestamp(time.UnixMilli(ms))
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FormatTimestamp(t)
	}
	if t, err := time.Parse(legacyLayout, s); err == nil {
		return FormatTimestamp(t)
	}
	return s
}
