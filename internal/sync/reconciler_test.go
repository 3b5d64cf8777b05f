// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackline/internal/cache"
	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/store"
)

func rec(owner, ts string, lat float64) models.LocationRecord {
	return models.LocationRecord{Latitude: lat, Longitude: lat, OwnerIdentity: owner, InsertedAt: ts}
}

func assertNonIncreasing(t *testing.T, records []models.LocationRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		if records[i-1].InsertedAt < records[i].InsertedAt {
			t.Fatalf("records not sorted descending at %d: %q < %q", i, records[i-1].InsertedAt, records[i].InsertedAt)
		}
	}
}

func TestReconciler_LoadMergesAndSorts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := cache.NewOfflineCache(store.NewMemoryStore())
	if err := c.Merge(ctx, []models.LocationRecord{rec("alice", "2026-03-01T08:00:00Z", 1)}); err != nil {
		t.Fatalf("seed Merge() error = %v", err)
	}

	mock := NewMockClient(
		rec("alice", "2026-03-02T08:00:00Z", 2),
		rec("alice", "2026-02-28T08:00:00Z", 3),
		rec("alice", "2026-03-01T08:00:00Z", 4), // overwrites the cached entry
	)
	r := NewReconciler(mock, c)

	result, err := r.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Empty || result.Stale {
		t.Errorf("Empty=%v Stale=%v, want both false", result.Empty, result.Stale)
	}
	if len(result.Records) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(result.Records))
	}
	assertNonIncreasing(t, result.Records)
	if result.Records[1].Latitude != 4 {
		t.Errorf("remote record did not win the dedup: %+v", result.Records[1])
	}

	// Loading again with the same remote data changes nothing.
	again, err := r.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !reflect.DeepEqual(again.Records, result.Records) {
		t.Errorf("second Load() = %v, want %v", again.Records, result.Records)
	}
}

func TestReconciler_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	r := NewReconciler(NewMockClient(), cache.NewOfflineCache(store.NewMemoryStore()))
	result, err := r.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !result.Empty || result.Stale || len(result.Records) != 0 {
		t.Errorf("result = %+v, want empty and fresh", result)
	}
	if result.Records == nil {
		t.Error("Records should be an empty slice, not nil")
	}
}

func TestReconciler_FetchTimeoutServesPriorCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	kv := store.NewMemoryStore()
	c := cache.NewOfflineCache(kv)
	prior := []models.LocationRecord{
		rec("alice", "2026-03-01T08:00:00Z", 1),
		rec("alice", "2026-03-01T09:00:00Z", 2),
	}
	if err := c.Merge(ctx, prior); err != nil {
		t.Fatalf("seed Merge() error = %v", err)
	}
	puts := kv.PutCount()

	client := NewHTTPClient(ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, identity.NewMockProvider(testToken, "uid-1"))
	result, err := NewReconciler(client, c).Load(ctx, "alice")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Load() error = %v, want ErrNetwork", err)
	}
	if !result.Stale || result.Empty {
		t.Errorf("Stale=%v Empty=%v, want stale and non-empty", result.Stale, result.Empty)
	}
	want := []models.LocationRecord{prior[1], prior[0]}
	if !reflect.DeepEqual(result.Records, want) {
		t.Errorf("Records = %v, want %v", result.Records, want)
	}
	if kv.PutCount() != puts {
		t.Error("a failed fetch must not write the cache")
	}
}

func TestReconciler_LegacyCacheMergesWithFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv := store.NewMemoryStore()
	legacy := `{"uid-1_2024-06-01 10:00:00":{"latitude":1,"longitude":1,"userEmail":"alice@example.com","insertionTimestamp":"2024-06-01 10:00:00","userId":"uid-1"}}`
	if err := kv.Put(ctx, cache.StorageKey, legacy); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.LocationRecord{
			{Latitude: 2, Longitude: 2, OwnerIdentity: "alice@example.com", InsertedAt: "2024-06-01 10:00:00", UserID: "uid-1"},
			{Latitude: 3, Longitude: 3, OwnerIdentity: "alice@example.com", InsertedAt: "2024-06-01 09:00:00", UserID: "uid-1"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second}, identity.NewMockProvider(testToken, "uid-1"))
	result, err := NewReconciler(client, cache.NewOfflineCache(kv)).Load(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(result.Records), result.Records)
	}
	if result.Records[0].InsertedAt != "2024-06-01T10:00:00Z" || result.Records[0].Latitude != 2 {
		t.Errorf("Records[0] = %+v, want the fetched 10:00 record", result.Records[0])
	}
	assertNonIncreasing(t, result.Records)
}

func TestReconciler_PersistFailureStillReturnsMerge(t *testing.T) {
	t.Parallel()

	kv := store.NewMemoryStore()
	kv.PutErr = errors.New("disk full")
	r := NewReconciler(NewMockClient(rec("alice", "2026-03-01T08:00:00Z", 1)), cache.NewOfflineCache(kv))

	result, err := r.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil (cache write errors are absorbed)", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
}

func TestFilterByDate(t *testing.T) {
	t.Parallel()

	records := []models.LocationRecord{
		rec("a", "2026-03-01T08:00:00Z", 1),
		rec("a", "2026-03-01 09:00:00", 2),
		rec("a", "2026-03-02T08:00:00Z", 3),
		rec("a", "", 4),
		rec("a", "2026-03", 5),
		rec("a", " 2026-03-01", 6),
	}

	tests := []struct {
		date string
		want []float64
	}{
		{"2026-03-01", []float64{1, 2}},
		{"2026-03-02", []float64{3}},
		{"2026-03-03", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := FilterByDate(records, tt.date)
			var lats []float64
			for _, r := range got {
				lats = append(lats, r.Latitude)
			}
			if !reflect.DeepEqual(lats, tt.want) {
				t.Errorf("FilterByDate(%q) = %v, want %v", tt.date, lats, tt.want)
			}
		})
	}
}

func TestSortDescending(t *testing.T) {
	t.Parallel()

	entries := map[string]models.LocationRecord{}
	for _, r := range []models.LocationRecord{
		rec("bob", "2026-03-01T08:00:00Z", 1),
		rec("alice", "2026-03-01T08:00:00Z", 2),
		rec("alice", "2026-03-03T08:00:00Z", 3),
		rec("alice", "2026-02-01T08:00:00Z", 4),
	} {
		entries[r.DedupKey()] = r
	}

	got := SortDescending(entries)
	assertNonIncreasing(t, got)

	var lats []float64
	for _, r := range got {
		lats = append(lats, r.Latitude)
	}
	// Equal timestamps fall back to dedup key order: alice_ before bob_.
	want := []float64{3, 2, 1, 4}
	if !reflect.DeepEqual(lats, want) {
		t.Errorf("SortDescending() order = %v, want %v", lats, want)
	}

	for i := 0; i < 10; i++ {
		if again := SortDescending(entries); !reflect.DeepEqual(again, got) {
			t.Fatal("SortDescending() is not deterministic")
		}
	}
}
