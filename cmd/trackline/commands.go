// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/trackline/internal/app"
	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/models"
	"github.com/tomtom215/trackline/internal/preferences"
)

type statusOutput struct {
	CachedRecords  int                     `json:"cached_records"`
	Breaker        string                  `json:"circuit_breaker,omitempty"`
	SavedSession   *models.TrackingSession `json:"saved_session,omitempty"`
	DefaultOwner   string                  `json:"default_owner,omitempty"`
	LocationSource string                  `json:"location_source"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved tracking session and cache size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				st := a.Engine.Status(ctx)
				out := statusOutput{
					CachedRecords:  st.CachedRecords,
					Breaker:        st.Breaker,
					DefaultOwner:   a.Config.Tracking.Owner,
					LocationSource: a.Config.Location.Source,
				}
				session, ok, err := preferences.New(a.Store).Load(ctx)
				if err != nil {
					return err
				}
				if ok {
					out.SavedSession = &session
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var owner, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Fetch remote history, merge it into the offline cache and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				result, fetchErr := a.Engine.GetHistory(ctx, owner, date)
				if errors.Is(fetchErr, engine.ErrNoOwner) {
					return fetchErr
				}
				w := cmd.OutOrStdout()
				if asJSON {
					if err := writeJSON(w, result); err != nil {
						return err
					}
				} else {
					printHistory(w, result.Records, result.Empty)
				}
				if fetchErr != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: showing cached history only: %v\n", fetchErr)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identity (default: tracking.owner)")
	cmd.Flags().StringVar(&date, "date", "", "only records from this day (yyyy-MM-dd)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printHistory(w io.Writer, records []models.LocationRecord, empty bool) {
	if empty {
		_, _ = fmt.Fprintln(w, "no location history")
		return
	}
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%s\n", r.InsertedAt, r.Latitude, r.Longitude, r.MapURL())
	}
}

func newSendTestCmd(opts *rootOptions) *cobra.Command {
	var owner string
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Submit one location immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				record, err := a.Engine.SendTestLocation(ctx, owner, lat, lng)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent %.6f,%.6f at %s\n%s\n",
					record.Latitude, record.Longitude, record.InsertedAt, record.MapURL())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identity (default: tracking.owner)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cache := &cobra.Command{Use: "cache", Short: "Offline history cache commands"}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all cached history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Engine.ClearCache(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
				return nil
			})
		},
	})
	return cache
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
