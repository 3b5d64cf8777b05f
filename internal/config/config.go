// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2), later layers win:
//  1. Defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/trackline/config.yaml)
//  3. Environment variables (see envTransformFunc)
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
type Config struct {
	Remote     RemoteConfig     `koanf:"remote"`
	Identity   IdentityConfig   `koanf:"identity"`
	Location   LocationConfig   `koanf:"location"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	Storage    StorageConfig    `koanf:"storage"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// RemoteConfig configures the location service client.
type RemoteConfig struct {
	// BaseURL is the API root; /location is appended.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds every HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the outbound request rate (requests/second). 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// BreakerEnabled wraps the client in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	// Mode is static, file, or oauth2.
	Mode string `koanf:"mode"`

	// Token is the bearer token for static mode.
	Token string `koanf:"token"`

	// TokenFile is re-read on every call in file mode.
	TokenFile string `koanf:"token_file"`

	// UserID overrides the user ID derived from the token's sub claim.
	UserID string `koanf:"user_id"`

	// OAuth2 refresh-token flow.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	TokenURL     string `koanf:"token_url"`
	RefreshToken string `koanf:"refresh_token"`
}

// LocationConfig selects the location sample source.
type LocationConfig struct {
	// Source is manual, websocket, or nats.
	Source string `koanf:"source"`

	WebSocketURL string `koanf:"websocket_url"`
	NATSURL      string `koanf:"nats_url"`
	NATSSubject  string `koanf:"nats_subject"`

	// NATSEmbedded starts an in-process NATS server listening on NATSURL.
	NATSEmbedded bool `koanf:"nats_embedded"`
}

// TrackingConfig holds tracking defaults.
type TrackingConfig struct {
	// Owner is the default owner identity for CLI commands.
	Owner string `koanf:"owner"`

	// IntervalMinutes is the default submission interval (1 to 720).
	IntervalMinutes int `koanf:"interval_minutes"`

	// AutoRearm restarts a persisted active session on boot.
	AutoRearm bool `koanf:"auto_rearm"`
}

// StorageConfig configures the BadgerDB key-value store.
type StorageConfig struct {
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// ServerConfig configures the local control API.
type ServerConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
