// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package engine is the control surface of Trackline: start and stop tracking,
read merged history, send a one-off test location and report status.

The HTTP API, the CLI and the supervisor services all drive one Engine,
built once in internal/app.
*/
package engine
