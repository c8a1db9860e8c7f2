// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package main is the entry point for the AdmitLens server.
//
// AdmitLens is a self-hosted engagement telemetry backend for school
// admissions teams. Prospective-family visitors browse an online
// prospectus instrumented with the AdmitLens tracker; the server
// ingests the resulting event batches, maintains per-session
// engagement metrics, and serves lead-score snapshots and narrative
// summaries to the admissions dashboard.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, YAML, env vars)
//  2. Event store: DuckDB append-only raw event log
//  3. Metrics store: Badger per-session engagement rows
//  4. Message bus: in-process watermill pub/sub for dashboard fan-out
//  5. WebSocket hub: real-time updates to connected dashboards
//  6. Aggregation: snapshot builder with optional narrative summarizer
//  7. Authentication: JWT or no-auth mode for the dashboard read side
//  8. HTTP server: chi-routed REST API on port 8411
//
// All long-running components run under a suture supervisor tree and
// restart independently on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in
// defaults.
//
// For JWT authentication (default):
//   - ADMITLENS_SECURITY_JWT_SECRET: 32+ character signing secret
//   - ADMITLENS_SECURITY_ADMIN_USERNAME: dashboard username
//   - ADMITLENS_SECURITY_ADMIN_PASSWORD: dashboard password (8+ chars)
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests, then closes the
// stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admitlens/admitlens/internal/aggregate"
	"github.com/admitlens/admitlens/internal/api"
	"github.com/admitlens/admitlens/internal/audit"
	"github.com/admitlens/admitlens/internal/auth"
	"github.com/admitlens/admitlens/internal/bus"
	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/ingest"
	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/supervisor"
	"github.com/admitlens/admitlens/internal/supervisor/services"
	ws "github.com/admitlens/admitlens/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("environment", cfg.Server.Environment).
		Msg("Starting AdmitLens")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventStore, err := ingest.NewEventStore(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open event store")
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()
	logging.Info().Msg("Event store initialized")

	metricsStore, err := ingest.OpenMetricsStore(cfg.MetricsStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open metrics store")
	}
	defer func() {
		if err := metricsStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing metrics store")
		}
	}()
	logging.Info().Msg("Metrics store initialized")

	// In-process message bus for dashboard fan-out
	busLogger := bus.NewLoggerAdapter()
	eventBus := bus.New(bus.DefaultConfig(), busLogger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing message bus")
		}
	}()

	busRouter, err := bus.NewRouter(nil, busLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create bus router")
	}

	wsHub := ws.NewHub()
	ws.RegisterBusHandlers(busRouter, eventBus, wsHub)

	// Optional narrative summarizer; the builder falls back to its
	// deterministic template when this stays nil
	var summarizer aggregate.Summarizer
	if s := aggregate.NewHTTPSummarizer(cfg.Summarizer); s != nil {
		summarizer = s
		logging.Info().Str("url", cfg.Summarizer.URL).Msg("Narrative summarizer enabled")
	}

	builder := aggregate.NewBuilder(eventStore.Conn(), metricsStore, summarizer, cfg.Aggregate)
	processor := ingest.NewProcessor(eventStore, metricsStore, eventBus, cfg.Ingest)

	var jwtManager *auth.JWTManager
	var credentials *auth.CredentialStore

	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		credentials, err = auth.NewCredentialStore(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize credential store")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("Dashboard endpoints are publicly accessible. Use only for local development.")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}

	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
	chiMW := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})

	handler := api.NewHandler(processor, builder, metricsStore, eventStore, cfg, jwtManager, credentials, wsHub)

	// Security audit trail on the shared event-store connection
	auditStore := audit.NewDuckDBStore(eventStore.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to create audit table, audit logging disabled")
	} else {
		auditLogger := audit.NewLogger(auditStore, audit.DefaultConfig())
		defer func() {
			if err := auditLogger.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit logger")
			}
		}()
		auditLogger.StartCleanupRoutine(ctx)
		handler.SetAuditLogger(auditLogger)
		logging.Info().Msg("Audit logging initialized")
	}

	router := api.NewRouter(handler, chiMW, authMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewBusRouterService(busRouter))
	tree.AddMessagingService(services.NewStatsBroadcastService(metricsStore, wsHub, 30*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("AdmitLens stopped gracefully")
}
