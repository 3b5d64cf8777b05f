// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
websocket.go - Device Fix Feed Client

Connects to a device-side WebSocket feed and turns fix messages into samples.

Protocol:

	client -> {"type":"subscribe","interval_ms":10000,"fastest_interval_ms":5000}
	server -> {"type":"fix","latitude":52.52,"longitude":13.405,"time":"2024-01-01T10:00:00Z"}
	server -> close frame with code 4403 when location permission is withdrawn
*/

package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
)

// SourceWebSocket labels samples from WebSocketProvider.
const SourceWebSocket = "websocket"

// ClosePermissionRevoked is the close code a feed sends when location access
// is withdrawn.
const ClosePermissionRevoked = 4403

const (
	wsHandshakeTimeout  = 10 * time.Second
	wsReadTimeout       = 60 * time.Second
	wsPingInterval      = 30 * time.Second
	wsReconnectDelay    = 1 * time.Second
	wsMaxReconnectDelay = 32 * time.Second
)

// feedMessage is the envelope for both directions of the feed protocol.
type feedMessage struct {
	Type              string    `json:"type"`
	Latitude          float64   `json:"latitude,omitempty"`
	Longitude         float64   `json:"longitude,omitempty"`
	Time              time.Time `json:"time,omitempty"`
	IntervalMS        int64     `json:"interval_ms,omitempty"`
	FastestIntervalMS int64     `json:"fastest_interval_ms,omitempty"`
}

// WebSocketProvider streams samples from a WebSocket fix feed.
type WebSocketProvider struct {
	url    string
	dialer websocket.Dialer
	log    zerolog.Logger

	// reconnect backoff bounds; tests shorten them
	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
}

// NewWebSocketProvider creates a provider for the feed at url (ws:// or wss://).
func NewWebSocketProvider(url string) *WebSocketProvider {
	return &WebSocketProvider{
		url: url,
		log: logging.WithComponent("location-feed"),
		dialer: websocket.Dialer{
			HandshakeTimeout:  wsHandshakeTimeout,
			EnableCompression: true,
		},
		reconnectDelay:    wsReconnectDelay,
		maxReconnectDelay: wsMaxReconnectDelay,
	}
}

// Subscribe connects to the feed and delivers fixes to onSample. An initial
// connection failure is returned; later drops are retried with backoff
// until the subscription is closed or the feed revokes permission.
func (p *WebSocketProvider) Subscribe(ctx context.Context, onSample func(Sample)) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	ws := &wsSubscription{
		provider: p,
		onSample: onSample,
		cancel:   cancel,
	}
	ws.subscription = newSubscription(ws.shutdown)

	if err := ws.connect(ctx); err != nil {
		cancel()
		return nil, err
	}

	ws.wg.Add(3)
	go ws.listen(ctx)
	go ws.pingLoop(ctx)
	go func() {
		defer ws.wg.Done()
		// Unblocks a pending read when the caller's context ends.
		<-ctx.Done()
		ws.dropConnection()
	}()
	return ws, nil
}

type wsSubscription struct {
	*subscription
	provider *WebSocketProvider
	onSample func(Sample)
	cancel   context.CancelFunc

	conn   *websocket.Conn
	connMu sync.Mutex

	wg sync.WaitGroup
}

func (s *wsSubscription) connect(ctx context.Context) error {
	conn, resp, err := s.provider.dialer.DialContext(ctx, s.provider.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	sub := feedMessage{
		Type:              "subscribe",
		IntervalMS:        DefaultUpdateInterval.Milliseconds(),
		FastestIntervalMS: FastestUpdateInterval.Milliseconds(),
	}
	data, err := json.Marshal(sub)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("encode subscribe: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return fmt.Errorf("send subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	metrics.SetProviderConnected(SourceWebSocket, true)
	s.provider.log.Info().Str("url", s.provider.url).Msg("Location feed connected")
	return nil
}

func (s *wsSubscription) currentConn() *websocket.Conn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn
}

// listen reads fixes until ctx ends, reconnecting with exponential backoff.
func (s *wsSubscription) listen(ctx context.Context) {
	defer s.wg.Done()
	defer s.dropConnection()

	delay := s.provider.reconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		conn := s.currentConn()
		if conn == nil {
			s.provider.log.Info().Dur("delay", delay).Msg("Location feed lost, reconnecting")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay *= 2
			if delay > s.provider.maxReconnectDelay {
				delay = s.provider.maxReconnectDelay
			}

			metrics.LocationProviderReconnects.WithLabelValues(SourceWebSocket).Inc()
			if err := s.connect(ctx); err != nil {
				s.provider.log.Warn().Err(err).Msg("Location feed reconnect failed")
				continue
			}
			delay = s.provider.reconnectDelay
			continue
		}

		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			s.provider.log.Debug().Err(err).Msg("Failed to set read deadline")
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, ClosePermissionRevoked) {
				s.provider.log.Warn().Msg("Location feed reported permission revoked")
				s.dropConnection()
				s.report(ErrPermissionRevoked)
				return
			}
			if ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.provider.log.Info().Msg("Location feed closed by peer")
			} else {
				s.provider.log.Warn().Err(err).Msg("Location feed read error")
			}
			s.dropConnection()
			continue
		}

		delay = s.provider.reconnectDelay
		s.handleMessage(message)
	}
}

func (s *wsSubscription) handleMessage(data []byte) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.provider.log.Debug().Err(err).Msg("Ignoring malformed feed message")
		return
	}

	switch msg.Type {
	case "fix":
		sample := Sample{Latitude: msg.Latitude, Longitude: msg.Longitude, Time: msg.Time}
		if sample.Time.IsZero() {
			sample.Time = time.Now().UTC()
		}
		metrics.RecordLocationSample(SourceWebSocket)
		s.onSample(sample)
	case "keepalive":
	default:
		s.provider.log.Debug().Str("type", msg.Type).Msg("Unknown feed message type")
	}
}

// pingLoop keeps the read deadline alive through pongs.
func (s *wsSubscription) pingLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn := s.currentConn()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				s.provider.log.Debug().Err(err).Msg("Feed ping failed")
			}
		}
	}
}

// dropConnection closes the current connection, if any.
func (s *wsSubscription) dropConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = s.conn.Close()
	s.conn = nil
	metrics.SetProviderConnected(SourceWebSocket, false)
}

func (s *wsSubscription) shutdown() error {
	s.cancel()
	s.dropConnection()
	s.wg.Wait()
	s.provider.log.Info().Msg("Location feed closed")
	return nil
}
