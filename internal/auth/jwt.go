// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/config"
)

// DefaultTokenTTL is the lifetime of tokens minted by GenerateToken.
const DefaultTokenTTL = 24 * time.Hour

// Claims represents JWT claims. The subject claim carries the HRMS user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts the claims to the caller identity used by the backup
// service. The user id doubles as the display name when no username is set.
func (c *Claims) Principal() backup.Principal {
	name := c.Username
	if name == "" {
		name = c.Subject
	}
	return backup.Principal{
		ID:   c.Subject,
		Name: name,
		Role: c.Role,
	}
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a token manager using HMAC-SHA256 and the configured
// secret.
//
// Returns an error if JWT_SECRET is empty. Config validation already enforces
// a 32 character minimum when AUTH_MODE=jwt.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: DefaultTokenTTL,
	}, nil
}

// GenerateToken creates a signed token for an HRMS user. The operator CLI
// uses it to mint tokens for scripted API access. A non-positive ttl uses
// DefaultTokenTTL.
func (m *JWTManager) GenerateToken(userID, username, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.timeout
	}
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and extracts the user claims.
//
// Tokens signed with anything other than HMAC are rejected to prevent
// algorithm confusion. Expiry and not-before are checked against server time.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("token has no role claim")
	}

	return claims, nil
}
