// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/store"
)

// StorageKey is the key holding the serialized cache blob.
const StorageKey = "cached_locations"

// ErrCacheCorrupt marks a persisted blob that could not be decoded. It never
// escapes the cache; a corrupt blob reads as an empty cache.
var ErrCacheCorrupt = errors.New("cache: persisted blob is corrupt")

// OfflineCache is the deduplicated set of location records seen so far,
// keyed by LocationRecord.DedupKey and persisted as one JSON object.
//
// The blob is loaded on first use. After that the in-memory map is
// authoritative and every mutation rewrites the whole blob.
type OfflineCache struct {
	kv store.KV

	mu      sync.Mutex
	loaded  bool
	entries map[string]models.LocationRecord
}

// NewOfflineCache creates a cache persisted in kv.
func NewOfflineCache(kv store.KV) *OfflineCache {
	return &OfflineCache{kv: kv}
}

// Merge inserts or overwrites incoming records by dedup key and flushes the
// result with a single write. Empty input does not touch the store.
//
// The returned error only reports a failed store write. The in-memory set
// keeps the merged records either way and the next successful write
// persists them.
func (c *OfflineCache) Merge(ctx context.Context, incoming []models.LocationRecord) error {
	if len(incoming) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return err
	}

	for _, rec := range incoming {
		c.entries[rec.DedupKey()] = rec
	}

	if err := c.flushLocked(ctx); err != nil {
		return err
	}
	metrics.RecordCacheMerge(len(c.entries))
	return nil
}

// All returns a copy of every cached record. Order is unspecified.
func (c *OfflineCache) All(ctx context.Context) map[string]models.LocationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return map[string]models.LocationRecord{}
	}
	out := make(map[string]models.LocationRecord, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of cached records.
func (c *OfflineCache) Len(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return 0
	}
	return len(c.entries)
}

// Clear drops every record and removes the persisted blob.
func (c *OfflineCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]models.LocationRecord)
	c.loaded = true
	metrics.CacheRecords.Set(0)

	if err := c.kv.Remove(ctx, StorageKey); err != nil {
		metrics.CacheWriteErrors.Inc()
		logging.Error().Err(err).Msg("Failed to remove offline cache blob")
		return fmt.Errorf("clear cache: %w", err)
	}
	logging.Info().Msg("Offline cache cleared")
	return nil
}

// loadLocked reads the blob once. A read failure leaves the cache unloaded
// so a later call can retry; a corrupt blob loads as empty.
func (c *OfflineCache) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	blob, ok, err := c.kv.Get(ctx, StorageKey)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read offline cache")
		return fmt.Errorf("load cache: %w", err)
	}

	c.entries = make(map[string]models.LocationRecord)
	c.loaded = true
	if !ok {
		return nil
	}

	entries, migrated, err := decode(blob)
	if err != nil {
		metrics.CacheCorruptTotal.Inc()
		logging.Warn().Err(err).Int("bytes", len(blob)).Msg("Offline cache unreadable, starting empty")
		return nil
	}
	c.entries = entries
	metrics.CacheRecords.Set(float64(len(entries)))

	if migrated {
		metrics.CacheMigrationsTotal.Inc()
		logging.Info().Int("records", len(entries)).Msg("Migrating offline cache to canonical keys")
		// Best effort; the in-memory copy is already in the new schema.
		_ = c.flushLocked(ctx)
	}
	return nil
}

func (c *OfflineCache) flushLocked(ctx context.Context) error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := c.kv.Put(ctx, StorageKey, string(data)); err != nil {
		metrics.CacheWriteErrors.Inc()
		logging.Error().Err(err).Int("records", len(c.entries)).Msg("Failed to persist offline cache")
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// decode accepts the map schema and the legacy list schema. Every record's
// InsertedAt is normalized and re-keyed by DedupKey. migrated is true when the
// blob was a list or any key or timestamp changed, so it must be rewritten.
func decode(blob string) (entries map[string]models.LocationRecord, migrated bool, err error) {
	raw := bytes.TrimSpace([]byte(blob))
	if len(raw) == 0 {
		return nil, false, fmt.Errorf("%w: empty blob", ErrCacheCorrupt)
	}

	switch raw[0] {
	case '{':
		stored := make(map[string]models.LocationRecord)
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
		}
		entries, migrated = rekeyMap(stored)
		return entries, migrated, nil
	case '[':
		var list []models.LocationRecord
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
		}
		entries = make(map[string]models.LocationRecord, len(list))
		for _, rec := range list {
			rec.InsertedAt = models.NormalizeTimestamp(rec.InsertedAt)
			entries[rec.DedupKey()] = rec
		}
		return entries, true, nil
	default:
		return nil, false, fmt.Errorf("%w: unexpected leading byte %q", ErrCacheCorrupt, raw[0])
	}
}

// rekeyMap normalizes a map-schema blob. When a legacy entry and a canonical
// entry collapse onto the same key, the canonical one wins: it was written by
// a later fetch.
func rekeyMap(stored map[string]models.LocationRecord) (map[string]models.LocationRecord, bool) {
	entries := make(map[string]models.LocationRecord, len(stored))
	var legacy []string
	for key, rec := range stored {
		if rec.InsertedAt == models.NormalizeTimestamp(rec.InsertedAt) && key == rec.DedupKey() {
			entries[key] = rec
			continue
		}
		legacy = append(legacy, key)
	}
	slices.Sort(legacy)
	for _, key := range legacy {
		rec := stored[key]
		rec.InsertedAt = models.NormalizeTimestamp(rec.InsertedAt)
		if _, ok := entries[rec.DedupKey()]; !ok {
			entries[rec.DedupKey()] = rec
		}
	}
	return entries, len(legacy) > 0
}
