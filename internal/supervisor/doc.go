// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package supervisor runs the server's long-lived services under a suture v4
supervisor tree.

	hrmsvault
	├── background-layer
	│   ├── eventbus.Bus            audit event journal (Watermill)
	│   └── ScratchJanitorService   stale scratch sweep
	└── api-layer
	    └── HTTPServerService

Crashed services restart with suture's backoff. Canceling the context passed
to Serve stops every service; services that miss ShutdownTimeout show up in
UnstoppedServiceReport.

Usage:

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackgroundService(bus)
	tree.AddAPIService(services.NewHTTPServerService(srv, srv.Addr, 30*time.Second))
	err := tree.Serve(ctx)

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog into the zerolog-backed slog handler.
*/
package supervisor
