// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// newFeedServer starts a fix feed whose per-connection behavior is given by
// handle. The connection count is returned for reconnect assertions.
func newFeedServer(t *testing.T, handle func(conn *websocket.Conn, n int32)) (string, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub feedMessage
		if err := json.Unmarshal(data, &sub); err != nil || sub.Type != "subscribe" {
			t.Errorf("first message = %s, want subscribe", data)
			return
		}
		if sub.IntervalMS != 10000 || sub.FastestIntervalMS != 5000 {
			t.Errorf("subscribe cadence = %d/%d, want 10000/5000", sub.IntervalMS, sub.FastestIntervalMS)
		}
		handle(conn, n)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), &conns
}

func sendFix(t *testing.T, conn *websocket.Conn, lat, lng float64) {
	t.Helper()
	msg := `{"type":"fix","latitude":` + jsonFloat(lat) + `,"longitude":` + jsonFloat(lng) + `,"time":"2024-01-01T10:00:00Z"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Errorf("write fix: %v", err)
	}
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// holdOpen blocks until the client goes away.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWebSocketProvider_DeliversFixes(t *testing.T) {
	t.Parallel()
	url, _ := newFeedServer(t, func(conn *websocket.Conn, _ int32) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"keepalive"}`))
		sendFix(t, conn, 52.52, 13.405)
		holdOpen(conn)
	})

	sink := make(sampleSink, 4)
	sub, err := NewWebSocketProvider(url).Subscribe(context.Background(), sink.callback)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	got := sink.wait(t)
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if got.Latitude != 52.52 || got.Longitude != 13.405 || !got.Time.Equal(want) {
		t.Errorf("sample = %+v", got)
	}
}

func TestWebSocketProvider_PermissionRevoked(t *testing.T) {
	t.Parallel()
	url, conns := newFeedServer(t, func(conn *websocket.Conn, _ int32) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(ClosePermissionRevoked, "location permission revoked"))
		holdOpen(conn)
	})

	p := NewWebSocketProvider(url)
	p.reconnectDelay = 10 * time.Millisecond
	sub, err := p.Subscribe(context.Background(), func(Sample) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if err := waitErr(t, sub); !errors.Is(err, ErrPermissionRevoked) {
		t.Errorf("Errors() = %v, want ErrPermissionRevoked", err)
	}

	time.Sleep(100 * time.Millisecond)
	if n := conns.Load(); n != 1 {
		t.Errorf("connections = %d, want 1 (no reconnect after revoke)", n)
	}
}

func TestWebSocketProvider_Reconnects(t *testing.T) {
	t.Parallel()
	url, conns := newFeedServer(t, func(conn *websocket.Conn, n int32) {
		if n == 1 {
			sendFix(t, conn, 1, 1)
			return // drop the connection
		}
		sendFix(t, conn, 2, 2)
		holdOpen(conn)
	})

	p := NewWebSocketProvider(url)
	p.reconnectDelay = 10 * time.Millisecond
	p.maxReconnectDelay = 20 * time.Millisecond

	sink := make(sampleSink, 4)
	sub, err := p.Subscribe(context.Background(), sink.callback)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if got := sink.wait(t); got.Latitude != 1 {
		t.Errorf("first sample = %+v", got)
	}
	if got := sink.wait(t); got.Latitude != 2 {
		t.Errorf("second sample = %+v", got)
	}
	if conns.Load() < 2 {
		t.Errorf("connections = %d, want >= 2", conns.Load())
	}
}

func TestWebSocketProvider_DialFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	if _, err := NewWebSocketProvider(url).Subscribe(context.Background(), func(Sample) {}); err == nil {
		t.Error("Subscribe() to closed server should fail")
	}
}

func TestWebSocketProvider_CloseStopsGoroutines(t *testing.T) {
	t.Parallel()
	url, _ := newFeedServer(t, func(conn *websocket.Conn, _ int32) { holdOpen(conn) })

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := NewWebSocketProvider(url).Subscribe(ctx, func(Sample) {})
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		_ = sub.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return after context cancel")
	}
}
