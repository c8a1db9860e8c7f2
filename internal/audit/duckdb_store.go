// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DuckDBStore implements Store on the shared event-store connection.
// Audit rows live next to the raw tracking events so one backup covers
// both.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store. Call CreateTable
// before the first Save.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_events table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS audit_events (
			id          TEXT PRIMARY KEY,
			timestamp   TIMESTAMPTZ NOT NULL,
			type        TEXT NOT NULL,
			severity    TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			username    TEXT,
			subject_id  TEXT,
			source_ip   TEXT,
			user_agent  TEXT,
			description TEXT NOT NULL,
			metadata    JSON,
			request_id  TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create audit_events table: %w", err)
	}
	return nil
}

// Save persists one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	const query = `
		INSERT INTO audit_events
			(id, timestamp, type, severity, outcome, username, subject_id,
			 source_ip, user_agent, description, metadata, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var metadata any
	if len(event.Metadata) > 0 {
		metadata = string(event.Metadata)
	}
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Type),
		string(event.Severity),
		string(event.Outcome),
		nullable(event.Username),
		nullable(event.SubjectID),
		nullable(event.SourceIP),
		nullable(event.UserAgent),
		event.Description,
		metadata,
		nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query retrieves events matching the filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildWhere(filter)
	query := `
		SELECT id, timestamp, type, severity, outcome,
		       COALESCE(username, ''), COALESCE(subject_id, ''),
		       COALESCE(source_ip, ''), COALESCE(user_agent, ''),
		       description, COALESCE(CAST(metadata AS TEXT), ''), COALESCE(request_id, '')
		FROM audit_events
	` + where + " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var typ, severity, outcome, metadata string
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &severity, &outcome,
			&e.Username, &e.SubjectID, &e.SourceIP, &e.UserAgent,
			&e.Description, &metadata, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = EventType(typ)
		e.Severity = Severity(severity)
		e.Outcome = Outcome(outcome)
		if metadata != "" {
			e.Metadata = []byte(metadata)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(filter)
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return count, nil
}

// DeleteBefore removes events older than cutoff.
func (s *DuckDBStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func buildWhere(filter QueryFilter) (string, []any) {
	var conds []string
	var args []any

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, filter.Username)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "timestamp < ?")
		args = append(args, filter.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
