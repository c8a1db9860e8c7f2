// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"context"
	"time"

	"github.com/admitlens/admitlens/internal/audit"
	"github.com/admitlens/admitlens/internal/auth"
	"github.com/admitlens/admitlens/internal/cache"
	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/models"
	ws "github.com/admitlens/admitlens/internal/websocket"
)

// BatchProcessor ingests one tracking batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batch *models.TrackBatch) (*models.TrackResponse, error)
}

// SnapshotBuilder builds per-subject engagement snapshots.
type SnapshotBuilder interface {
	Snapshot(ctx context.Context, subjectID string) (*models.EngagementSnapshot, error)
}

// SubjectDirectory lists tracked subjects from the metrics store.
type SubjectDirectory interface {
	Subjects() ([]models.SubjectActivity, error)
	SessionCount() (int, error)
}

// ReadinessPinger verifies the event store connection.
type ReadinessPinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the dependencies for all API endpoints. Methods are
// split across files:
//   - handlers_track.go: public batch ingestion
//   - handlers_engagement.go: authenticated dashboard reads
//   - handlers_auth.go: login
//   - handlers_health.go: liveness and readiness probes
//   - handlers_ws.go: WebSocket upgrade
type Handler struct {
	processor   BatchProcessor
	builder     SnapshotBuilder
	directory   SubjectDirectory
	eventStore  ReadinessPinger
	config      *config.Config
	jwtManager  *auth.JWTManager
	credentials *auth.CredentialStore
	wsHub       *ws.Hub
	auditLog    *audit.Logger
	snapCache   *cache.TTL[*models.EngagementSnapshot]
	startTime   time.Time
}

// NewHandler creates the API handler. eventStore may be nil in tests;
// readiness then reports only the metrics store.
func NewHandler(
	processor BatchProcessor,
	builder SnapshotBuilder,
	directory SubjectDirectory,
	eventStore ReadinessPinger,
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	credentials *auth.CredentialStore,
	wsHub *ws.Hub,
) *Handler {
	h := &Handler{
		processor:   processor,
		builder:     builder,
		directory:   directory,
		eventStore:  eventStore,
		config:      cfg,
		jwtManager:  jwtManager,
		credentials: credentials,
		wsHub:       wsHub,
		startTime:   time.Now(),
	}
	if ttl := cfg.Aggregate.SnapshotCacheTTL; ttl > 0 {
		h.snapCache = cache.NewTTL[*models.EngagementSnapshot](ttl, 10000)
	}
	return h
}

// snapshot builds the engagement snapshot for a subject, serving from
// the short-lived cache when enabled. A fresh batch for the subject
// invalidates the entry, so the dashboard never lags a full TTL behind
// a live visitor.
func (h *Handler) snapshot(ctx context.Context, subjectID string) (*models.EngagementSnapshot, error) {
	if h.snapCache == nil {
		return h.builder.Snapshot(ctx, subjectID)
	}
	if snap, ok := h.snapCache.Get(subjectID); ok {
		return snap, nil
	}
	snap, err := h.builder.Snapshot(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	h.snapCache.Set(subjectID, snap)
	return snap, nil
}

// SetAuditLogger enables security audit logging on the login and
// ingestion paths. Optional; a nil handler field disables it.
func (h *Handler) SetAuditLogger(l *audit.Logger) {
	h.auditLog = l
}
