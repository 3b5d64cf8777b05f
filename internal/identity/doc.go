// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

// Package identity supplies bearer tokens and user identifiers for calls to
// the remote location service. Sign-in itself happens in the host
// application; Trackline only consumes its result through one of three
// providers: a static token, a token file rewritten by the host, or an
// OAuth 2.0 refresh token.
package identity
