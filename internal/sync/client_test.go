// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/models"
)

const testToken = "eyJhbGciOiJIUzI1NiJ9.test.sig"

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *identity.MockProvider) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	id := identity.NewMockProvider(testToken, "uid-1")
	client := NewHTTPClient(ClientConfig{BaseURL: server.URL + "/", Timeout: 2 * time.Second}, id)
	return client, id
}

func testRecord() models.LocationRecord {
	return models.LocationRecord{
		Latitude:      52.52,
		Longitude:     13.405,
		OwnerIdentity: "alice@example.com",
		InsertedAt:    "2026-03-01T10:00:00Z",
		UserID:        "uid-1",
	}
}

func TestHTTPClient_Submit_RequestContract(t *testing.T) {
	t.Parallel()

	amzDate := regexp.MustCompile(`^\d{8}T\d{6}Z$`)
	var got models.LocationRecord

	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/location" {
			t.Errorf("request = %s %s, want POST /location", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != testToken {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if d := r.Header.Get("X-Amz-Date"); d != "20260301T100500Z" || !amzDate.MatchString(d) {
			t.Errorf("X-Amz-Date = %q", d)
		}
		if r.Header.Get("X-Amz-User-Id") != "uid-1" || r.Header.Get("X-Amz-User-Sub") != "uid-1" {
			t.Errorf("user headers = %q / %q", r.Header.Get("X-Amz-User-Id"), r.Header.Get("X-Amz-User-Sub"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})
	client.now = func() time.Time { return time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC) }

	if err := client.Submit(context.Background(), testRecord()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got != testRecord() {
		t.Errorf("server received %+v", got)
	}
}

func TestHTTPClient_Submit_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantKind ErrorKind
		wantErr  error
	}{
		{"ok", http.StatusOK, 0, nil},
		{"created", http.StatusCreated, 0, nil},
		{"no content", http.StatusNoContent, 0, nil},
		{"unauthorized", http.StatusUnauthorized, KindUnauthenticated, ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, KindUnauthenticated, ErrUnauthenticated},
		{"bad request", http.StatusBadRequest, KindServerRejected, ErrServerRejected},
		{"server error", http.StatusInternalServerError, KindServerRejected, ErrServerRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "detail-"+tt.name)
			})

			err := client.Submit(context.Background(), testRecord())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Submit() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}
			var se *SyncError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *SyncError", err)
			}
			if se.Kind != tt.wantKind || se.StatusCode != tt.status {
				t.Errorf("SyncError = kind %v status %d", se.Kind, se.StatusCode)
			}
			if se.Body != "detail-"+tt.name {
				t.Errorf("Body = %q", se.Body)
			}
		})
	}
}

func TestHTTPClient_Submit_NoTokenSkipsRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, id := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	id.SetTokenError(identity.ErrUnauthenticated)

	err := client.Submit(context.Background(), testRecord())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Submit() error = %v, want ErrUnauthenticated", err)
	}
	if !errors.Is(err, identity.ErrUnauthenticated) {
		t.Errorf("Submit() error = %v, want the provider error wrapped", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times, want 0", calls.Load())
	}
}

func TestHTTPClient_Submit_LargeRejectionBodyTruncated(t *testing.T) {
	t.Parallel()

	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, strings.Repeat("x", maxErrorBody+100))
	})

	var se *SyncError
	if err := client.Submit(context.Background(), testRecord()); !errors.As(err, &se) {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(se.Body) != maxErrorBody {
		t.Errorf("len(Body) = %d, want %d", len(se.Body), maxErrorBody)
	}
}

func TestHTTPClient_FetchHistory(t *testing.T) {
	t.Parallel()

	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/location" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "uid-1" {
			t.Errorf("userId = %q", r.URL.Query().Get("userId"))
		}
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("GET carries Content-Type %q", r.Header.Get("Content-Type"))
		}
		_, _ = io.WriteString(w, `[
			{"latitude":1.5,"longitude":2.5,"userEmail":"alice@example.com","insertionTimestamp":"2026-03-01T10:00:00Z"},
			{"latitude":3.5,"longitude":4.5,"userEmail":"alice@example.com","insertionTimestamp":"1772359200000"}
		]`)
	})

	records, err := client.FetchHistory(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].InsertedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("records[0].InsertedAt = %q", records[0].InsertedAt)
	}
	if records[1].InsertedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("epoch millis not normalized: %q", records[1].InsertedAt)
	}
}

func TestHTTPClient_FetchHistory_UserIDFallback(t *testing.T) {
	t.Parallel()

	client, id := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "alice@example.com" {
			t.Errorf("userId = %q, want owner fallback", r.URL.Query().Get("userId"))
		}
		if r.Header.Get("X-Amz-User-Id") != "alice@example.com" {
			t.Errorf("X-Amz-User-Id = %q", r.Header.Get("X-Amz-User-Id"))
		}
		_, _ = io.WriteString(w, `[]`)
	})
	id.SetUserIDError(identity.ErrNoUserID)

	records, err := client.FetchHistory(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want empty", records)
	}
}

func TestHTTPClient_FetchHistory_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "timeout",
			timeout: 50 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantErr: ErrNetwork,
		},
		{
			name:    "malformed body",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"not":"a list"`)
			},
			wantErr: ErrServerRejected,
		},
		{
			name:    "unauthorized",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewHTTPClient(ClientConfig{BaseURL: server.URL, Timeout: tt.timeout}, identity.NewMockProvider(testToken, "uid-1"))
			records, err := client.FetchHistory(context.Background(), "alice@example.com")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchHistory() error = %v, want %v", err, tt.wantErr)
			}
			if records != nil {
				t.Errorf("records = %v, want nil on failure", records)
			}
		})
	}
}

func TestHTTPClient_NotConfigured(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient(ClientConfig{}, identity.NewMockProvider(testToken, "uid-1"))
	err := client.Submit(context.Background(), testRecord())
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Submit() error = %v, want ErrNetwork wrapping ErrNotConfigured", err)
	}
}

func TestHTTPClient_RateLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewHTTPClient(ClientConfig{
		BaseURL:   server.URL,
		Timeout:   time.Second,
		RateLimit: 0.001,
		RateBurst: 1,
	}, identity.NewMockProvider(testToken, "uid-1"))

	if err := client.Submit(context.Background(), testRecord()); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.Submit(ctx, testRecord()); !errors.Is(err, ErrNetwork) {
		t.Errorf("second Submit() error = %v, want ErrNetwork", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}
