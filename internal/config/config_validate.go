// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateLocation(); err != nil {
		return err
	}
	if err := c.validateTracking(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateRemote allows an empty base URL so history and cache commands work
// offline; tracking start fails later with a clear error in that case.
func (c *Config) validateRemote() error {
	if c.Remote.BaseURL != "" {
		if err := validateURL(c.Remote.BaseURL, "http", "https"); err != nil {
			return fmt.Errorf("TRACKLINE_API_URL is invalid: %w", err)
		}
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("TRACKLINE_API_TIMEOUT must be positive, got %v", c.Remote.Timeout)
	}
	if c.Remote.Timeout > 2*time.Minute {
		return fmt.Errorf("TRACKLINE_API_TIMEOUT must be at most 2m, got %v", c.Remote.Timeout)
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("TRACKLINE_API_RATE_LIMIT must be >= 0, got %v", c.Remote.RateLimit)
	}
	if c.Remote.RateLimit > 0 && c.Remote.RateBurst < 1 {
		return fmt.Errorf("TRACKLINE_API_RATE_BURST must be >= 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.Mode {
	case "static":
		return nil
	case "file":
		if c.Identity.TokenFile == "" {
			return fmt.Errorf("IDENTITY_TOKEN_FILE is required when IDENTITY_MODE=file")
		}
		return nil
	case "oauth2":
		if c.Identity.TokenURL == "" || c.Identity.ClientID == "" || c.Identity.RefreshToken == "" {
			return fmt.Errorf("IDENTITY_TOKEN_URL, IDENTITY_CLIENT_ID and IDENTITY_REFRESH_TOKEN are required when IDENTITY_MODE=oauth2")
		}
		if err := validateURL(c.Identity.TokenURL, "http", "https"); err != nil {
			return fmt.Errorf("IDENTITY_TOKEN_URL is invalid: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("IDENTITY_MODE must be one of static, file, oauth2, got %q", c.Identity.Mode)
	}
}

func (c *Config) validateLocation() error {
	switch c.Location.Source {
	case "manual":
		return nil
	case "websocket":
		if c.Location.WebSocketURL == "" {
			return fmt.Errorf("LOCATION_WEBSOCKET_URL is required when LOCATION_SOURCE=websocket")
		}
		if err := validateURL(c.Location.WebSocketURL, "ws", "wss"); err != nil {
			return fmt.Errorf("LOCATION_WEBSOCKET_URL is invalid: %w", err)
		}
		return nil
	case "nats":
		if c.Location.NATSURL == "" {
			return fmt.Errorf("LOCATION_NATS_URL is required when LOCATION_SOURCE=nats")
		}
		if c.Location.NATSSubject == "" || strings.ContainsAny(c.Location.NATSSubject, " \t*>") {
			return fmt.Errorf("LOCATION_NATS_SUBJECT must be a literal subject, got %q", c.Location.NATSSubject)
		}
		return nil
	default:
		return fmt.Errorf("LOCATION_SOURCE must be one of manual, websocket, nats, got %q", c.Location.Source)
	}
}

func (c *Config) validateTracking() error {
	if c.Tracking.IntervalMinutes < 1 || c.Tracking.IntervalMinutes > 720 {
		return fmt.Errorf("TRACKING_INTERVAL_MINUTES must be between 1 and 720, got %d", c.Tracking.IntervalMinutes)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL is invalid: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, ", "), u.Scheme)
}
