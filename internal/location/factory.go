// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"fmt"

	"github.com/tomtom215/trackline/internal/config"
)

// NewFromConfig builds the provider selected by cfg.Source.
func NewFromConfig(cfg config.LocationConfig) (Provider, error) {
	switch cfg.Source {
	case "manual", "":
		return NewManualProvider(), nil
	case "websocket":
		return NewWebSocketProvider(cfg.WebSocketURL), nil
	case "nats":
		return NewNATSProvider(cfg.NATSURL, cfg.NATSSubject), nil
	default:
		return nil, fmt.Errorf("unknown location source %q", cfg.Source)
	}
}
