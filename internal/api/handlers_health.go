// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthLive handles GET /api/v1/health/live. Process-up only; no
// dependency checks, so orchestrators never restart on a slow store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, map[string]any{"status": "alive"}, start)
}

// HealthReady handles GET /api/v1/health/ready: the event store must
// answer a ping and the metrics store an iteration before ingestion
// traffic is routed here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if h.eventStore != nil {
		if err := h.eventStore.Ping(ctx); err != nil {
			checks["event_store"] = "unavailable"
			ready = false
		} else {
			checks["event_store"] = "ok"
		}
	}
	if h.directory != nil {
		if _, err := h.directory.SessionCount(); err != nil {
			checks["metrics_store"] = "unavailable"
			ready = false
		} else {
			checks["metrics_store"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	if ready {
		respondSuccess(w, map[string]any{"status": "ready", "checks": checks}, start)
		return
	}
	respondJSON(w, status, buildErrorEnvelope("not_ready", "a dependency is unavailable", checks))
}

// Health handles GET /api/v1/health: uptime and dependency summary for
// dashboards.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data := map[string]any{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.startTime).Seconds()),
	}
	if h.wsHub != nil {
		data["wsClients"] = h.wsHub.GetClientCount()
	}
	if h.directory != nil {
		if sessions, err := h.directory.SessionCount(); err == nil {
			data["trackedSessions"] = sessions
		}
	}
	respondSuccess(w, data, start)
}
