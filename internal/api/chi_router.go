// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/admitlens/admitlens/internal/auth"
	"github.com/admitlens/admitlens/internal/middleware"
)

// Router wires handlers and middleware into the Chi route tree.
type Router struct {
	handler *Handler
	chiMW   *ChiMiddleware
	authMW  *auth.Middleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMW *auth.Middleware) *Router {
	return &Router{handler: handler, chiMW: chiMW, authMW: authMW}
}

// SetupChi builds the full route tree.
//
// Route tiers:
//   - /api/v1/track: public, permissive CORS, generous rate limit
//   - /api/v1/health/*: public probes
//   - /api/v1/auth/login: public, strict rate limit
//   - everything else under /api/v1: authenticated dashboard reads
//   - /metrics: Prometheus scrape endpoint
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiMiddleware(middleware.Compression))

	// Batch ingestion. Public by contract: the tracker runs in
	// unauthenticated visitor browsers on arbitrary school domains.
	r.Route("/api/v1/track", func(r chi.Router) {
		r.Use(router.chiMW.TrackCORS())
		r.Use(router.chiMW.RateLimitTrack())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Post("/", router.handler.Track)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMW.CORS())
		r.Use(router.chiMW.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMW.CORS())
		r.Use(APISecurityHeaders())
		r.With(router.chiMW.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMW.CORS())
		r.Use(router.chiMW.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authMW.Authenticate))

		r.Get("/subjects", router.handler.Subjects)
		r.Get("/engagement/{subjectID}", router.handler.Engagement)
		r.Get("/engagement/{subjectID}/top", router.handler.EngagementTop)
		r.Get("/engagement/{subjectID}/narrative", router.handler.Narrative)
		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
