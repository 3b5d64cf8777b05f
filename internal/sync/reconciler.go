// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"slices"

	"github.com/tomtom215/trackline/internal/cache"
	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/models"
)

// HistoryResult is the merged history view.
type HistoryResult struct {
	Records []models.LocationRecord `json:"records"`
	// Empty is true when there are zero records. It is not an error.
	Empty bool `json:"empty"`
	// Stale is true when the fetch failed and Records came from cache only.
	Stale bool `json:"stale"`
}

// Reconciler merges remote history into the offline cache.
type Reconciler struct {
	client LocationClient
	cache  *cache.OfflineCache
}

// NewReconciler creates a Reconciler.
func NewReconciler(client LocationClient, c *cache.OfflineCache) *Reconciler {
	return &Reconciler{client: client, cache: c}
}

// Load fetches history for owner, merges it into the cache and returns the
// whole cache newest first. On fetch failure it returns the cache as it was
// together with the classified error.
func (r *Reconciler) Load(ctx context.Context, owner string) (HistoryResult, error) {
	fetched, fetchErr := r.client.FetchHistory(ctx, owner)
	if fetchErr == nil {
		if err := r.cache.Merge(ctx, fetched); err != nil {
			// The merge is still visible in memory; persistence retries on the next merge.
			logging.Ctx(ctx).Warn().Err(err).Int("records", len(fetched)).Msg("Failed to persist merged history")
		}
	} else {
		logging.Ctx(ctx).Warn().Err(fetchErr).Str("owner", logging.RedactOwner(owner)).Msg("History fetch failed, serving cached records")
	}

	records := SortDescending(r.cache.All(ctx))
	return HistoryResult{
		Records: records,
		Empty:   len(records) == 0,
		Stale:   fetchErr != nil,
	}, fetchErr
}

// FilterByDate keeps records whose date portion equals date (YYYY-MM-DD).
// Records without a usable timestamp are dropped.
func FilterByDate(records []models.LocationRecord, date string) []models.LocationRecord {
	out := make([]models.LocationRecord, 0, len(records))
	for _, r := range records {
		if d, ok := r.DatePortion(); ok && d == date {
			out = append(out, r)
		}
	}
	return out
}

// SortDescending returns the records ordered by InsertedAt, newest first.
// Ties are broken by dedup key so the order is deterministic.
func SortDescending(entries map[string]models.LocationRecord) []models.LocationRecord {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]models.LocationRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, entries[k])
	}
	models.SortByInsertedAtDesc(out)
	return out
}
