// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tomtom215/trackline/internal/api"
	"github.com/tomtom215/trackline/internal/cache"
	"github.com/tomtom215/trackline/internal/config"
	"github.com/tomtom215/trackline/internal/engine"
	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/location"
	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/preferences"
	"github.com/tomtom215/trackline/internal/store"
	"github.com/tomtom215/trackline/internal/supervisor"
	"github.com/tomtom215/trackline/internal/supervisor/services"
	"github.com/tomtom215/trackline/internal/sync"
)

// App holds every wired component of a Trackline process.
type App struct {
	Config   *config.Config
	Store    *store.BadgerStore
	Engine   *engine.Engine
	Location location.Provider
	Handler  *api.Handler

	client sync.LocationClient
	broker atomic.Pointer[location.EmbeddedBroker]
}

// InitLogging applies the logging section of cfg.
func InitLogging(cfg config.LoggingConfig) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Level
	lc.Format = cfg.Format
	lc.Caller = cfg.Caller
	logging.Init(lc)
}

// Build opens the store and constructs the engine and control API. The
// caller owns the result and must Close it.
func Build(cfg *config.Config) (*App, error) {
	kv, err := store.OpenBadger(store.Options{
		Path:       cfg.Storage.Path,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, kv *store.BadgerStore) (*App, error) {
	id, err := identity.NewFromConfig(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	provider, err := location.NewFromConfig(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("location source: %w", err)
	}

	var client sync.LocationClient = sync.NewHTTPClient(sync.ClientConfig{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		RateLimit: cfg.Remote.RateLimit,
		RateBurst: cfg.Remote.RateBurst,
	}, id)
	if cfg.Remote.BreakerEnabled {
		client = sync.NewCircuitBreakerClient(client, sync.BreakerSettings{})
	}

	a := &App{
		Config:   cfg,
		Store:    kv,
		Location: provider,
		client:   client,
	}
	a.Engine = engine.New(engine.Config{
		Client:          client,
		Location:        provider,
		Identity:        id,
		Cache:           cache.NewOfflineCache(kv),
		Preferences:     preferences.New(kv),
		Reporter:        sync.LogReporter{},
		DefaultOwner:    cfg.Tracking.Owner,
		DefaultInterval: cfg.Tracking.IntervalMinutes,
	})

	var fixes api.FixSink
	if manual, ok := provider.(*location.ManualProvider); ok {
		fixes = manual
	}
	a.Handler = api.NewHandler(a.Engine, fixes)
	a.Handler.AddReadinessCheck("store", func(context.Context) error {
		if !kv.Healthy() {
			return errors.New("store closed")
		}
		return nil
	})
	if cfg.Location.Source == "nats" && cfg.Location.NATSEmbedded {
		a.Handler.AddReadinessCheck("location_bus", func(context.Context) error {
			if b := a.broker.Load(); b == nil || !b.Running() {
				return errors.New("embedded location bus not running")
			}
			return nil
		})
	}
	return a, nil
}

// Router returns the control API handler.
func (a *App) Router() http.Handler {
	srv := a.Config.Server
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = srv.CORSOrigins
	mw.RateLimitRequests = srv.RateLimitReqs
	mw.RateLimitWindow = srv.RateLimitWindow
	mw.RateLimitDisabled = srv.RateLimitDisabled
	return api.NewRouter(a.Handler, mw).SetupChi()
}

// Tree assembles the supervisor tree for a long-running process.
func (a *App) Tree() (*supervisor.SupervisorTree, error) {
	sc := a.Config.Supervisor
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: sc.FailureThreshold,
		FailureBackoff:   sc.FailureBackoff,
		ShutdownTimeout:  sc.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	if !a.Config.Storage.InMemory {
		tree.AddDataService(services.NewStoreGCService(a.Store, services.DefaultGCInterval, services.DefaultGCDiscardRatio))
	}
	if a.Config.Location.Source == "nats" && a.Config.Location.NATSEmbedded {
		bc, err := brokerConfigFromURL(a.Config.Location.NATSURL)
		if err != nil {
			return nil, err
		}
		tree.AddDataService(services.NewBrokerService(func() (services.Broker, error) {
			b, err := location.StartEmbeddedBroker(bc)
			if err != nil {
				return nil, err
			}
			a.broker.Store(b)
			return b, nil
		}, 0))
	}

	tree.AddTrackingService(services.NewTrackingService(a.Engine, a.Config.Tracking.AutoRearm))

	if a.Config.Server.Enabled {
		server := &http.Server{
			Addr:              a.Config.Server.Addr(),
			Handler:           a.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, a.Config.Server.ShutdownTimeout))
	}
	return tree, nil
}

// Run serves until ctx is canceled, then reports services that missed the
// shutdown deadline.
func (a *App) Run(ctx context.Context) error {
	tree, err := a.Tree()
	if err != nil {
		return err
	}

	logging.Info().
		Str("location_source", a.Config.Location.Source).
		Bool("api", a.Config.Server.Enabled).
		Msg("Trackline starting")

	err = tree.Serve(ctx)
	if report, rErr := tree.UnstoppedServiceReport(); rErr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops tracking, waits for in-flight submissions and closes the
// store. Safe to call after Run.
func (a *App) Close() error {
	engErr := a.Engine.Close()
	storeErr := a.Store.Close()
	return errors.Join(engErr, storeErr)
}

// brokerConfigFromURL derives the embedded server's listen address from the
// URL subscribers will dial.
func brokerConfigFromURL(raw string) (location.BrokerConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return location.BrokerConfig{}, fmt.Errorf("parse nats url: %w", err)
	}
	if u.Scheme != "nats" {
		return location.BrokerConfig{}, fmt.Errorf("embedded broker needs a nats:// url, got %q", raw)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return location.BrokerConfig{Host: u.Hostname(), Port: 4222}, nil //nolint:nilerr // no port means the default
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return location.BrokerConfig{}, fmt.Errorf("invalid nats port %q", portStr)
	}
	return location.BrokerConfig{Host: host, Port: port}, nil
}
