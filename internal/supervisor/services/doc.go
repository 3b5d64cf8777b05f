// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package services adapts long-running Trackline components to suture.Service.

  - HTTPServerService: the control API (api layer)
  - TrackingService: re-arms and closes the tracking engine (tracking layer)
  - StoreGCService: Badger value log GC on a ticker (data layer)
  - BrokerService: the embedded NATS location bus (data layer)

Every service returns ctx.Err() on a requested shutdown and a wrapped
error on failure so suture applies its backoff policy.
*/
package services
