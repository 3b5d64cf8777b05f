// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

// Package logging provides centralized zerolog-based structured logging for Trackline.
//
// The engine, the location providers, the control API and the CLI all log
// through this package. Production output is JSON, one object per line;
// development output is human-readable console text.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output for production and console output for development
//   - Context-aware logging with correlation and request ID propagation
//   - Component loggers tagged with a "component" field
//   - Redaction helpers for tokens, user IDs and owner identities
//   - slog adapter for Suture v4 integration
//
// # Quick Start
//
//	import "github.com/tomtom215/trackline/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Int("interval_minutes", 60).Msg("Tracking started")
//	logging.Error().Err(err).Msg("Submit failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Warn().Err(err).Msg("History fetch failed, serving cached records")
//
// # Configuration
//
// Environment variables (read by internal/config):
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// The CLI's --log-level flag overrides LOG_LEVEL after Init through
// SetLevelString.
//
// Programmatic configuration:
//
//	logging.Init(logging.Config{
//	    Level:     "debug",
//	    Format:    "console",
//	    Caller:    true,
//	    Timestamp: true,
//	    Output:    os.Stderr,
//	})
//
// # Log Levels
//
// Supported log levels (from most to least verbose):
//
//	trace     - Very detailed diagnostic information
//	debug     - Feed messages, fetch counts, ignored fixes
//	info      - Session start and stop, store open, bus connect (default)
//	warn      - Failed submissions, feed drops, stale history
//	error     - Persistence failures
//	disabled  - No output (tests and scripted CLI use)
//
// # Structured Logging
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use typed fields instead of string formatting:
//
//	logging.Info().
//	    Str("owner", logging.RedactOwner(owner)).
//	    Int("interval_minutes", interval).
//	    Msg("Tracking started")
//
//	// Avoid
//	logging.Info().Msgf("Tracking %s every %d minutes", owner, interval)
//
// # Component Loggers
//
// Long-lived components take a child logger at construction:
//
//	feedLog := logging.WithComponent("location-feed")
//	feedLog.Info().Msg("Location feed connected")
//
// Build component loggers after Init; a logger created earlier keeps the
// previous writer and format.
//
// # Context-Aware Logging
//
// The HTTP middleware stores a request ID and a correlation ID in the request
// context, and the tracker starts a new correlation ID for each submission.
// Ctx adds both:
//
//	logging.Ctx(ctx).Info().Msg("Location submitted")
//	// {"level":"info","correlation_id":"3f2a9c1e","message":"Location submitted"}
//
// # Sensitive Values
//
// Never log a bearer token, a raw user ID or a full owner identity:
//
//	logging.Debug().
//	    Str("token", logging.RedactToken(token)).
//	    Str("user_id", logging.RedactUserID(userID)).
//	    Str("owner", logging.RedactOwner(owner)).
//	    Msg("Identity resolved")
//
// # slog Adapter
//
// NewSlogLogger returns an *slog.Logger backed by zerolog. The supervisor
// tree passes it to sutureslog so restarts and failures land in the same
// stream.
//
// # Output Formats
//
// JSON format (production):
//
//	{"level":"info","time":"2026-03-01T10:30:00Z","message":"Key-value store opened","path":"/data/trackline"}
//
// Console format (development):
//
//	10:30:00 INF Key-value store opened path=/data/trackline
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// guarded by a sync.RWMutex for configuration changes.
package logging
