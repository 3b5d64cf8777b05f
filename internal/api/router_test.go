// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackline/internal/cache"
	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/preferences"
	"github.com/tomtom215/trackline/internal/store"
	"github.com/tomtom215/trackline/internal/sync"
)

type apiFixture struct {
	server   *httptest.Server
	handler  *Handler
	engine   *engine.Engine
	client   *sync.MockClient
	provider *location.ManualProvider
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func newAPIFixture(t *testing.T, cfg *ChiMiddlewareConfig) *apiFixture {
	t.Helper()
	kv := store.NewMemoryStore()
	f := &apiFixture{
		client:   sync.NewMockClient(),
		provider: location.NewManualProvider(),
	}
	f.engine = engine.New(engine.Config{
		Client:          f.client,
		Location:        f.provider,
		Identity:        identity.NewMockProvider("token", "uid-1"),
		Cache:           cache.NewOfflineCache(kv),
		Preferences:     preferences.New(kv),
		DefaultInterval: 60,
	})
	f.handler = NewHandler(f.engine, f.provider)
	f.server = httptest.NewServer(NewRouter(f.handler, cfg).SetupChi())
	t.Cleanup(func() {
		f.server.Close()
		_ = f.engine.Close()
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func TestRouter_TrackingLifecycle(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	code, env := f.do(t, http.MethodPost, "/api/v1/tracking/start", `{"owner":"alice@example.com","interval_minutes":30}`)
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("start = %d %+v", code, env)
	}
	var st engine.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !st.Tracking || st.Session == nil || st.Session.IntervalMinutes != 30 {
		t.Errorf("status after start = %+v", st)
	}

	code, env = f.do(t, http.MethodGet, "/api/v1/tracking", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	_ = json.Unmarshal(env.Data, &st)
	if st.State != "running" {
		t.Errorf("State = %q, want running", st.State)
	}

	for i := 0; i < 2; i++ {
		code, env = f.do(t, http.MethodPost, "/api/v1/tracking/stop", "")
		if code != http.StatusOK {
			t.Fatalf("stop #%d = %d %+v", i, code, env)
		}
	}
	if f.engine.IsTracking() {
		t.Error("engine still tracking after stop")
	}
}

func TestRouter_StartTrackingValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"interval too large", `{"owner":"alice","interval_minutes":721}`},
		{"negative interval", `{"owner":"alice","interval_minutes":-1}`},
		{"malformed json", `{"owner":`},
		{"unknown field", `{"owner":"alice","interval":5}`},
		{"no owner configured", `{"interval_minutes":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAPIFixture(t, nil)
			code, env := f.do(t, http.MethodPost, "/api/v1/tracking/start", tt.body)
			if code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400", code)
			}
			if env.Error == nil || env.Error.Code != models.ErrCodeValidation {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
			if f.engine.IsTracking() {
				t.Error("invalid request started tracking")
			}
		})
	}
}

func TestRouter_History(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)
	f.client.SetHistory([]models.LocationRecord{
		{Latitude: 1, Longitude: 1, OwnerIdentity: "alice", InsertedAt: "2026-03-01T08:00:00Z"},
		{Latitude: 2, Longitude: 2, OwnerIdentity: "alice", InsertedAt: "2026-03-02T08:00:00Z"},
	}, nil)

	code, env := f.do(t, http.MethodGet, "/api/v1/history?owner=alice", "")
	if code != http.StatusOK {
		t.Fatalf("history = %d %+v", code, env)
	}
	var payload models.HistoryPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Count != 2 || payload.Empty || payload.Records[0].InsertedAt != "2026-03-02T08:00:00Z" {
		t.Errorf("payload = %+v", payload)
	}

	code, env = f.do(t, http.MethodGet, "/api/v1/history?owner=alice&date=2026-03-01", "")
	_ = json.Unmarshal(env.Data, &payload)
	if code != http.StatusOK || payload.Count != 1 {
		t.Errorf("filtered history = %d %+v", code, payload)
	}

	code, env = f.do(t, http.MethodGet, "/api/v1/history?owner=alice&date=03/01/2026", "")
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != models.ErrCodeValidation {
		t.Errorf("bad date = %d %+v", code, env.Error)
	}

	f.client.SetHistory(nil, &sync.SyncError{Kind: sync.KindNetwork, Op: sync.OpFetchHistory, Err: errors.New("timeout")})
	code, env = f.do(t, http.MethodGet, "/api/v1/history?owner=alice", "")
	if code != http.StatusBadGateway {
		t.Errorf("failed fetch code = %d, want 502", code)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeRemoteUnavailable {
		t.Errorf("failed fetch error = %+v", env.Error)
	}
	payload = models.HistoryPayload{}
	_ = json.Unmarshal(env.Data, &payload)
	if !payload.Stale || payload.Count != 2 {
		t.Errorf("failed fetch payload = %+v, want stale cached records", payload)
	}
}

func TestRouter_HistoryEmpty(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	code, env := f.do(t, http.MethodGet, "/api/v1/history?owner=alice", "")
	if code != http.StatusOK {
		t.Fatalf("history = %d", code)
	}
	if !strings.Contains(string(env.Data), `"records":[]`) || !strings.Contains(string(env.Data), `"empty":true`) {
		t.Errorf("data = %s", env.Data)
	}
}

func TestRouter_SendTestLocation(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	code, env := f.do(t, http.MethodPost, "/api/v1/locations/test", `{"owner":"alice"}`)
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != models.ErrCodeConflict {
		t.Errorf("no fix = %d %+v", code, env.Error)
	}

	code, env = f.do(t, http.MethodPost, "/api/v1/locations/test", `{"owner":"alice","latitude":52.52,"longitude":13.405}`)
	if code != http.StatusOK {
		t.Fatalf("send = %d %+v", code, env)
	}
	if !strings.Contains(string(env.Data), "maps?q=52.52") {
		t.Errorf("data = %s, want map url", env.Data)
	}

	code, _ = f.do(t, http.MethodPost, "/api/v1/locations/test", `{"owner":"alice","latitude":95,"longitude":0}`)
	if code != http.StatusBadRequest {
		t.Errorf("out-of-range latitude = %d, want 400", code)
	}

	f.client.SetSubmitError(&sync.SyncError{Kind: sync.KindUnauthenticated, StatusCode: 401})
	code, env = f.do(t, http.MethodPost, "/api/v1/locations/test", `{"owner":"alice","latitude":1,"longitude":1}`)
	if code != http.StatusUnauthorized || env.Error.Code != models.ErrCodeUnauthenticated {
		t.Errorf("unauthenticated = %d %+v", code, env.Error)
	}
}

func TestRouter_PushFix(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	code, env := f.do(t, http.MethodPost, "/api/v1/fixes", `{"latitude":48.85,"longitude":2.35,"time":"2026-03-01T10:00:00Z"}`)
	if code != http.StatusAccepted {
		t.Fatalf("push = %d %+v", code, env)
	}
	latest, ok := f.provider.Latest()
	if !ok || latest.Latitude != 48.85 || !latest.Time.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}

	code, _ = f.do(t, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1,"time":"yesterday"}`)
	if code != http.StatusBadRequest {
		t.Errorf("bad time = %d, want 400", code)
	}
}

func TestRouter_PushFixWithoutManualSource(t *testing.T) {
	t.Parallel()
	kv := store.NewMemoryStore()
	e := engine.New(engine.Config{
		Client:      sync.NewMockClient(),
		Location:    location.NewManualProvider(),
		Cache:       cache.NewOfflineCache(kv),
		Preferences: preferences.New(kv),
	})
	defer func() { _ = e.Close() }()

	srv := httptest.NewServer(NewRouter(NewHandler(e, nil), nil).SetupChi())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/fixes", "application/json", strings.NewReader(`{"latitude":1,"longitude":1}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("code = %d, want 404", resp.StatusCode)
	}
}

func TestRouter_ClearCache(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)
	f.client.SetHistory([]models.LocationRecord{{Latitude: 1, Longitude: 1, OwnerIdentity: "a", InsertedAt: "2026-03-01T08:00:00Z"}}, nil)
	_, _ = f.do(t, http.MethodGet, "/api/v1/history?owner=a", "")

	code, _ := f.do(t, http.MethodDelete, "/api/v1/cache", "")
	if code != http.StatusOK {
		t.Fatalf("clear = %d", code)
	}
	if n := f.engine.Status(context.Background()).CachedRecords; n != 0 {
		t.Errorf("CachedRecords = %d after clear", n)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	if code, _ := f.do(t, http.MethodGet, "/api/v1/health/live", ""); code != http.StatusOK {
		t.Errorf("live = %d", code)
	}
	if code, _ := f.do(t, http.MethodGet, "/api/v1/health/ready", ""); code != http.StatusOK {
		t.Errorf("ready with no checks = %d", code)
	}

	f.handler.AddReadinessCheck("store", func(context.Context) error { return nil })
	f.handler.AddReadinessCheck("broker", func(context.Context) error { return errors.New("not connected") })
	code, env := f.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if code != http.StatusServiceUnavailable {
		t.Errorf("ready with failing check = %d", code)
	}
	if !strings.Contains(string(env.Data), "not connected") || !strings.Contains(string(env.Data), `"store":"ok"`) {
		t.Errorf("data = %s", env.Data)
	}
}

func TestRouter_MetricsAndFallbacks(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	resp, err := http.Get(f.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("/metrics = %d", resp.StatusCode)
	}

	code, env := f.do(t, http.MethodGet, "/api/v1/nope", "")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("unknown route = %d %+v", code, env.Error)
	}

	code, _ = f.do(t, http.MethodGet, "/api/v1/cache", "")
	if code != http.StatusMethodNotAllowed {
		t.Errorf("GET /cache = %d, want 405", code)
	}
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/tracking", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Header.Get("X-Request-ID") != "req-123" {
		t.Errorf("X-Request-ID = %q", resp.Header.Get("X-Request-ID"))
	}
	var env struct {
		Metadata models.Metadata `json:"metadata"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&env)
	if env.Metadata.RequestID != "req-123" {
		t.Errorf("metadata.request_id = %q", env.Metadata.RequestID)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	f := newAPIFixture(t, cfg)

	for i := 0; i < 2; i++ {
		if code, _ := f.do(t, http.MethodGet, "/api/v1/tracking", ""); code != http.StatusOK {
			t.Fatalf("request %d = %d", i, code)
		}
	}
	code, env := f.do(t, http.MethodGet, "/api/v1/tracking", "")
	if code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("third request = %d %+v", code, env.Error)
	}

	// Health checks are not limited.
	if code, _ := f.do(t, http.MethodGet, "/api/v1/health/live", ""); code != http.StatusOK {
		t.Errorf("health under limit = %d", code)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"interval", sync.ErrInvalidInterval, http.StatusBadRequest, models.ErrCodeValidation},
		{"owner", engine.ErrNoOwner, http.StatusBadRequest, models.ErrCodeValidation},
		{"no fix", sync.ErrNoFixAvailable, http.StatusConflict, models.ErrCodeConflict},
		{"revoked", location.ErrPermissionRevoked, http.StatusConflict, models.ErrCodeConflict},
		{"unauth", &sync.SyncError{Kind: sync.KindUnauthenticated}, http.StatusUnauthorized, models.ErrCodeUnauthenticated},
		{"network", &sync.SyncError{Kind: sync.KindNetwork}, http.StatusServiceUnavailable, models.ErrCodeRemoteUnavailable},
		{"rejected", &sync.SyncError{Kind: sync.KindServerRejected}, http.StatusBadGateway, models.ErrCodeRemoteRejected},
		{"other", errors.New("boom"), http.StatusInternalServerError, models.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyError(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("classifyError() = %d %q, want %d %q", status, code, tt.status, tt.code)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
