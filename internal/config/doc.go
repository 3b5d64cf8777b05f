// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package config loads and validates Trackline configuration.

Configuration is layered with Koanf v2: struct defaults, then an optional
YAML file, then environment variables. Env names are mapped explicitly
(envTransformFunc); anything unmapped is ignored.

Common variables:

	TRACKLINE_API_URL           location service root (POST/GET {url}/location)
	TRACKLINE_API_TIMEOUT       HTTP timeout (default 15s)
	IDENTITY_MODE               static | file | oauth2
	IDENTITY_TOKEN              bearer token (static mode)
	LOCATION_SOURCE             manual | websocket | nats
	TRACKING_INTERVAL_MINUTES   default interval, 1 to 720 (default 60)
	BADGER_PATH                 data directory (default /data/trackline)
	HTTP_PORT                   control API port (default 8787)
	LOG_LEVEL, LOG_FORMAT       logging

Example YAML:

	remote:
	  base_url: https://api.example.com/prod
	  timeout: 15s
	identity:
	  mode: file
	  token_file: /run/trackline/token
	location:
	  source: websocket
	  websocket_url: ws://127.0.0.1:9000/fixes
	tracking:
	  owner: alice@example.com
	  interval_minutes: 30
*/
package config
