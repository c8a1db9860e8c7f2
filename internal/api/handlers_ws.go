// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/admitlens/admitlens/internal/logging"
	ws "github.com/admitlens/admitlens/internal/websocket"
)

func parseOriginHost(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// WebSocket handles GET /api/v1/ws: upgrades the dashboard connection
// and registers it with the hub for live engagement broadcasts.
// Authentication already ran in the middleware chain.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "ws_disabled", "live updates are not enabled", nil)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkWSOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ws.NewClient(h.wsHub, conn).Start()
}

// checkWSOrigin allows same-host connections and any configured CORS
// origin. Browsers send Origin on WebSocket upgrades; non-browser
// clients that omit it are allowed since auth already passed.
func (h *Handler) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := parseOriginHost(origin)
	if err != nil {
		return false
	}
	return u == r.Host
}
