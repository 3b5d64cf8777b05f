// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/trackline/internal/config"
)

// sampleSink collects samples delivered to a callback.
type sampleSink chan Sample

func (s sampleSink) callback(sample Sample) {
	select {
	case s <- sample:
	default:
	}
}

func (s sampleSink) wait(t *testing.T) Sample {
	t.Helper()
	select {
	case got := <-s:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sample")
		return Sample{}
	}
}

func waitErr(t *testing.T, sub Subscription) error {
	t.Helper()
	select {
	case err := <-sub.Errors():
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for subscription error")
		return nil
	}
}

func TestSample_HasFix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    Sample
		want bool
	}{
		{"origin", Sample{}, false},
		{"equator", Sample{Latitude: 0, Longitude: 13.4}, true},
		{"meridian", Sample{Latitude: 52.5, Longitude: 0}, true},
		{"berlin", Sample{Latitude: 52.52, Longitude: 13.405}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.HasFix(); got != tt.want {
				t.Errorf("HasFix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManualProvider_PushAndClose(t *testing.T) {
	t.Parallel()
	p := NewManualProvider()
	sink := make(sampleSink, 4)

	sub, err := p.Subscribe(context.Background(), sink.callback)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if n := p.Push(Sample{Latitude: 1, Longitude: 2}); n != 1 {
		t.Errorf("Push() reached %d subscribers, want 1", n)
	}
	got := sink.wait(t)
	if got.Latitude != 1 || got.Time.IsZero() {
		t.Errorf("sample = %+v, want lat 1 with stamped time", got)
	}
	if latest, ok := p.Latest(); !ok || latest.Longitude != 2 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}

	if err := sub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if n := p.Push(Sample{Latitude: 3, Longitude: 4}); n != 0 {
		t.Errorf("Push() after Close reached %d subscribers", n)
	}
}

func TestManualProvider_ReplaysLatestOnSubscribe(t *testing.T) {
	t.Parallel()
	p := NewManualProvider()
	p.Push(Sample{Latitude: 48.85, Longitude: 2.35})

	sink := make(sampleSink, 1)
	sub, err := p.Subscribe(context.Background(), sink.callback)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer func() { _ = sub.Close() }()

	if got := sink.wait(t); got.Latitude != 48.85 {
		t.Errorf("replayed sample = %+v", got)
	}
}

func TestManualProvider_ContextCancelUnsubscribes(t *testing.T) {
	t.Parallel()
	p := NewManualProvider()
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := p.Subscribe(ctx, func(Sample) {}); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManualProvider_Revoke(t *testing.T) {
	t.Parallel()
	p := NewManualProvider()
	sub, err := p.Subscribe(context.Background(), func(Sample) {})
	if err != nil {
		t.Fatal(err)
	}

	p.Revoke()
	if err := waitErr(t, sub); !errors.Is(err, ErrPermissionRevoked) {
		t.Errorf("Errors() = %v, want ErrPermissionRevoked", err)
	}
	if _, err := p.Subscribe(context.Background(), func(Sample) {}); !errors.Is(err, ErrPermissionRevoked) {
		t.Errorf("Subscribe() while revoked error = %v", err)
	}
	if n := p.Push(Sample{Latitude: 1, Longitude: 1}); n != 0 {
		t.Errorf("Push() while revoked reached %d", n)
	}

	p.Grant()
	if _, err := p.Subscribe(context.Background(), func(Sample) {}); err != nil {
		t.Errorf("Subscribe() after Grant error = %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		source  string
		wantErr bool
	}{
		{"manual", false},
		{"websocket", false},
		{"nats", false},
		{"gps-serial", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			p, err := NewFromConfig(config.LocationConfig{
				Source:       tt.source,
				WebSocketURL: "ws://127.0.0.1:9/fixes",
				NATSURL:      "nats://127.0.0.1:4222",
				NATSSubject:  "trackline.fixes",
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p == nil {
				t.Error("provider is nil")
			}
		})
	}
}
