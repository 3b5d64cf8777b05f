// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
)

// SourceNATS labels samples from NATSProvider.
const SourceNATS = "nats"

// RevokedSuffix is appended to the fix subject to form the revocation subject.
const RevokedSuffix = ".revoked"

// NATSProvider receives fixes published on a NATS subject. A message on
// <subject>.revoked withdraws location permission.
type NATSProvider struct {
	url     string
	subject string
	log     zerolog.Logger
}

// NewNATSProvider creates a provider for subject on the server at url.
func NewNATSProvider(url, subject string) *NATSProvider {
	return &NATSProvider{url: url, subject: subject, log: logging.WithComponent("location-bus")}
}

// Subscribe opens a connection dedicated to this subscription.
func (p *NATSProvider) Subscribe(ctx context.Context, onSample func(Sample)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nc, err := nats.Connect(p.url,
		nats.Name("trackline-location"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			metrics.SetProviderConnected(SourceNATS, false)
			if err != nil {
				p.log.Warn().Err(err).Msg("Location bus disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			metrics.SetProviderConnected(SourceNATS, true)
			metrics.LocationProviderReconnects.WithLabelValues(SourceNATS).Inc()
			p.log.Info().Msg("Location bus reconnected")
		}),
		nats.ConnectHandler(func(_ *nats.Conn) {
			metrics.SetProviderConnected(SourceNATS, true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	sub := newSubscription(nil)
	done := make(chan struct{})
	sub.closeFn = func() error {
		close(done)
		metrics.SetProviderConnected(SourceNATS, false)
		if err := nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			nc.Close()
			return fmt.Errorf("drain NATS connection: %w", err)
		}
		return nil
	}

	if _, err := nc.Subscribe(p.subject, func(msg *nats.Msg) {
		var s Sample
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			p.log.Debug().Err(err).Str("subject", msg.Subject).Msg("Ignoring malformed fix")
			return
		}
		if s.Time.IsZero() {
			s.Time = time.Now().UTC()
		}
		metrics.RecordLocationSample(SourceNATS)
		onSample(s)
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", p.subject, err)
	}

	if _, err := nc.Subscribe(p.subject+RevokedSuffix, func(*nats.Msg) {
		p.log.Warn().Str("subject", p.subject).Msg("Location bus reported permission revoked")
		sub.report(ErrPermissionRevoked)
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", p.subject+RevokedSuffix, err)
	}

	// Make sure the server has registered interest before returning.
	if nc.IsConnected() {
		if err := nc.FlushTimeout(5 * time.Second); err != nil {
			p.log.Warn().Err(err).Msg("NATS flush after subscribe failed")
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-done:
		}
	}()

	p.log.Info().Str("url", p.url).Str("subject", p.subject).Msg("Location bus subscribed")
	return sub, nil
}
