// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package auth authenticates callers of the backup API.

The HRMS host application issues HS256 JWTs carrying the caller's id, display
name and privilege tier. The middleware validates the bearer token and places
a backup.Principal in the request context. Authorization is not decided here;
the backup service checks the principal's role through the casbin enforcer in
internal/authz.

Authentication Modes (AUTH_MODE):

  - jwt (default): Authorization: Bearer <token> is required
  - none: every request runs as a principal with SecurityConfig.DefaultRole,
    for local development and trusted sidecar deployments

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(&cfg.Security, jwtManager)
	r.Use(mw.Authenticate)

	// in a handler
	principal, ok := auth.PrincipalFromContext(r.Context())
*/
package auth
