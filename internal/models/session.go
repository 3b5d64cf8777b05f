// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package models

import "time"

// Interval bounds for a tracking session, in minutes.
const (
	MinIntervalMinutes     = 1
	MaxIntervalMinutes     = 720
	DefaultIntervalMinutes = 60
)

// TrackingSession is the persisted tracking preference: who is tracked, how
// often, and whether tracking should be running. The scheduler does not
// persist timers, so the host re-arms an active session on relaunch.
type TrackingSession struct {
	OwnerIdentity   string    `json:"owner_identity" validate:"required"`
	IntervalMinutes int       `json:"interval_minutes" validate:"min=1,max=720"`
	Active          bool      `json:"active"`
	StartedAt       time.Time `json:"started_at,omitempty"`
}

// Interval returns the session interval as a duration.
func (s TrackingSession) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// ValidInterval reports whether minutes is inside the accepted bound.
func ValidInterval(minutes int) bool {
	return minutes >= MinIntervalMinutes && minutes <= MaxIntervalMinutes
}
