// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package services adapts long-running backup components to suture's
Serve(ctx) error contract.

	HTTPServerService      wraps *http.Server; graceful Shutdown on cancel
	ScratchJanitorService  periodic sweep of stale scratch and upload files

The audit event bus (eventbus.Bus) already implements suture.Service and is
added to the tree directly.
*/
package services
