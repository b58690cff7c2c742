// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package supervisor runs Rollcall's long-lived components under suture v4.

The tree has three layers so a failing push connection never takes the
admin API down with it:

	RootSupervisor ("rollcall")
	├── EngineSupervisor ("engine-layer")
	│   ├── sync-engine   (job queue: full syncs, push messages, admin jobs)
	│   └── scheduler     (periodic full-sync trigger)
	├── TransportSupervisor ("transport-layer")
	│   └── registrant-ws (push-channel connector)
	└── APISupervisor ("api-layer")
	    └── admin-http    (health, metrics, admin routes; optional)

Crashed services are restarted with suture's backoff. Events are logged
through the slog adapter from internal/logging via sutureslog.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddEngineService(services.NewRunnerService("sync-engine", manager))
	tree.AddEngineService(services.NewRunnerService("scheduler", scheduler))
	tree.AddTransportService(services.NewRunnerService("registrant-ws", connector))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

See services/ for the suture.Service adapters.
*/
package supervisor
