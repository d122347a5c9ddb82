// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/models"
)

type contextKey string

// PrincipalContextKey stores the authenticated backup.Principal.
const PrincipalContextKey contextKey = "principal"

// Principal used for every request when AUTH_MODE=none.
const (
	AnonymousID   = "anonymous"
	AnonymousName = "Anonymous"
)

// CodeUnauthorized is the API error code for missing or invalid credentials.
const CodeUnauthorized = "UNAUTHORIZED"

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p backup.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (backup.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(backup.Principal)
	return p, ok
}

// Middleware authenticates API requests.
type Middleware struct {
	jwtManager  *JWTManager
	authMode    string
	defaultRole string
}

// NewMiddleware creates the authentication middleware. jwtManager may be nil
// when authentication is disabled.
func NewMiddleware(cfg *config.SecurityConfig, jwtManager *JWTManager) *Middleware {
	return &Middleware{
		jwtManager:  jwtManager,
		authMode:    cfg.AuthMode,
		defaultRole: cfg.DefaultRole,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == config.AuthModeNone {
			p := backup.Principal{ID: AnonymousID, Name: AnonymousName, Role: m.defaultRole}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w, r, "Authentication required")
			return
		}
		if m.jwtManager == nil {
			unauthorized(w, r, "Authentication unavailable")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			unauthorized(w, r, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	resp := models.NewErrorResponse(CodeUnauthorized, message, nil, logging.RequestIDFromContext(r.Context()))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="hrms-backups"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error response")
	}
}
