// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Dashboard authentication events
	EventTypeLoginSuccess EventType = "auth.login_success"
	EventTypeLoginFailure EventType = "auth.login_failure"
	EventTypeTokenRejected EventType = "auth.token_rejected"

	// Ingestion abuse events
	EventTypeBatchRejected  EventType = "ingest.batch_rejected"
	EventTypeBatchOversized EventType = "ingest.batch_oversized"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether the audited action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one security-relevant occurrence: a dashboard login attempt
// or a rejected tracking batch. Events are append-only and retained for
// a configurable window.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Outcome   Outcome   `json:"outcome"`

	// Username is the dashboard account involved, if any.
	Username string `json:"username,omitempty"`

	// SubjectID is the tracked inquiry involved, if any.
	SubjectID string `json:"subjectId,omitempty"`

	SourceIP  string `json:"sourceIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`

	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
}

// QueryFilter narrows event queries. Zero fields are ignored.
type QueryFilter struct {
	Types    []EventType
	Username string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// DeleteBefore removes events older than cutoff, returning the
	// number removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
