// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/admitlens/admitlens/internal/logging"
)

type contextKey string

// ClaimsContextKey is the request-context key holding the validated
// session claims.
const ClaimsContextKey contextKey = "auth_claims"

// TokenCookieName is the HTTP-only cookie the login handler sets.
const TokenCookieName = "admitlens_token"

// Middleware enforces dashboard authentication. The /track ingestion
// endpoint never passes through it; visitors being tracked are not
// authenticated.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
}

// NewMiddleware creates the authentication middleware. Mode "none" is a
// development-only passthrough; config validation rejects it in
// production.
func NewMiddleware(jwtManager *JWTManager, authMode string) *Middleware {
	return &Middleware{jwtManager: jwtManager, authMode: authMode}
}

// Authenticate requires a valid session token on the wrapped handler.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next(w, r)
			return
		}

		token, err := m.extractToken(r)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// extractToken reads the session token from the Authorization header or
// the session cookie. Header wins when both are present.
func (m *Middleware) extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", errInvalidAuthHeader
		}
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", errMissingToken
	}
	return cookie.Value, nil
}

// ClaimsFromContext returns the validated claims stored by Authenticate,
// or nil when the request was not authenticated (auth mode none).
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}
