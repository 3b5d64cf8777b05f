// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package location provides the sources of position samples.

A Provider delivers Samples to a callback for as long as its Subscription
lives. Loss of location permission is terminal: the provider sends
ErrPermissionRevoked on Subscription.Errors and delivers nothing more.

Providers:

  - ManualProvider: samples are pushed in-process, by the control API
    (POST /api/v1/fixes) or by tests.
  - WebSocketProvider: a device feed speaking a small JSON protocol, with
    reconnect backoff from 1s to 32s. Close code 4403 means revoked.
  - NATSProvider: JSON samples on a subject; any message on
    <subject>.revoked means revoked.

EmbeddedBroker runs a local NATS server for the NATS provider when no
external broker is available.
*/
package location
