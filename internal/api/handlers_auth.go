// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/auth"
	"github.com/admitlens/admitlens/internal/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/v1/auth/login. On success the token is
// returned in the body and set as an HTTP-only cookie, so both API
// clients and the browser dashboard can authenticate.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed_request", "malformed login request", nil)
		return
	}

	if h.credentials == nil || !h.credentials.Verify(req.Username, req.Password) {
		logging.Ctx(r.Context()).Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Msg("Failed login attempt")
		if h.auditLog != nil {
			h.auditLog.LogLoginFailure(r, sanitizeLogValue(req.Username))
		}
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogLoginSuccess(r, req.Username)
	}

	token, err := h.jwtManager.GenerateToken(req.Username, "admin")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token_failed", "failed to create session", err)
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.SessionTimeout())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
	})

	respondSuccess(w, loginResponse{Token: token, ExpiresAt: expiresAt.UTC()}, start)
}
