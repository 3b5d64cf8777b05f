// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/trackline/internal/logging"
)

// BrokerConfig configures the embedded fix bus.
type BrokerConfig struct {
	Host string
	Port int // -1 picks a random free port
}

// EmbeddedBroker runs an in-process NATS server so a host app on the same
// machine can publish fixes without an external broker.
type EmbeddedBroker struct {
	server *server.Server
}

// StartEmbeddedBroker starts the server and waits until it accepts clients.
func StartEmbeddedBroker(cfg BrokerConfig) (*EmbeddedBroker, error) {
	opts := &server.Options{
		ServerName: "trackline-fixes",
		Host:       cfg.Host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: 64 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	logging.Info().Str("url", ns.ClientURL()).Msg("Embedded location bus started")
	return &EmbeddedBroker{server: ns}, nil
}

// ClientURL returns the URL clients should connect to.
func (b *EmbeddedBroker) ClientURL() string {
	return b.server.ClientURL()
}

// Running reports whether the server is up.
func (b *EmbeddedBroker) Running() bool {
	return b.server.Running()
}

// Shutdown stops the server and waits for it to exit.
func (b *EmbeddedBroker) Shutdown() {
	b.server.Shutdown()
	b.server.WaitForShutdown()
	logging.Info().Msg("Embedded location bus stopped")
}
