// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
Package supervisor runs Trackline's long-lived services under a suture v4
tree.

	root ("trackline")
	├── data-layer      store GC, embedded location bus
	├── tracking-layer  tracking engine
	└── api-layer       control API

Each layer is its own supervisor, so a crashing service is restarted with
backoff without disturbing the other layers. Supervisor events are logged
through sutureslog into the zerolog stream (logging.NewSlogLogger).

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTrackingService(services.NewTrackingService(eng, true))
	err = tree.Serve(ctx)
*/
package supervisor
