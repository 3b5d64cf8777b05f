// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trackline/config.yaml",
	"/etc/trackline/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:        "",
			Timeout:        15 * time.Second,
			RateLimit:      2,
			RateBurst:      4,
			BreakerEnabled: true,
		},
		Identity: IdentityConfig{
			Mode: "static",
		},
		Location: LocationConfig{
			Source:       "manual",
			NATSURL:      "nats://127.0.0.1:4222",
			NATSSubject:  "trackline.fixes",
			NATSEmbedded: false,
		},
		Tracking: TrackingConfig{
			IntervalMinutes: 60,
			AutoRearm:       true,
		},
		Storage: StorageConfig{
			Path:       "/data/trackline",
			InMemory:   false,
			SyncWrites: true,
		},
		Server: ServerConfig{
			Enabled:           true,
			Host:              "127.0.0.1",
			Port:              8787,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{},
			RateLimitReqs:     120,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence, then validates it.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile loads configuration using an explicit YAML path instead of the
// search list. Environment variables still override the file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return LoadWithKoanf()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Remote location service
	"trackline_api_url":         "remote.base_url",
	"trackline_api_timeout":     "remote.timeout",
	"trackline_api_rate_limit":  "remote.rate_limit",
	"trackline_api_rate_burst":  "remote.rate_burst",
	"trackline_circuit_breaker": "remote.breaker_enabled",

	// Identity
	"identity_mode":          "identity.mode",
	"identity_token":         "identity.token",
	"identity_token_file":    "identity.token_file",
	"identity_user_id":       "identity.user_id",
	"identity_client_id":     "identity.client_id",
	"identity_client_secret": "identity.client_secret",
	"identity_token_url":     "identity.token_url",
	"identity_refresh_token": "identity.refresh_token",

	// Location source
	"location_source":        "location.source",
	"location_websocket_url": "location.websocket_url",
	"location_nats_url":      "location.nats_url",
	"location_nats_subject":  "location.nats_subject",
	"location_nats_embedded": "location.nats_embedded",

	// Tracking
	"tracking_owner":            "tracking.owner",
	"tracking_interval_minutes": "tracking.interval_minutes",
	"tracking_auto_rearm":       "tracking.auto_rearm",

	// Storage
	"badger_path":        "storage.path",
	"badger_in_memory":   "storage.in_memory",
	"badger_sync_writes": "storage.sync_writes",

	// Control API
	"http_enabled":          "server.enabled",
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - TRACKLINE_API_URL -> remote.base_url
//   - IDENTITY_TOKEN    -> identity.token
//   - BADGER_PATH       -> storage.path
//   - HTTP_PORT         -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
