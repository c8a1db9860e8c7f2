// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/metrics"
	"github.com/admitlens/admitlens/internal/models"
)

// StoredEvent is one event row ready for the append-only event table:
// the raw event plus the numeric contributions derived from its payload.
// Deriving at write time keeps the aggregation queries pure SQL.
type StoredEvent struct {
	Event         models.Event
	DwellDeltaSec float64
	ScrollPct     int
	ClicksTotal   int
	VideoTotalSec float64
	VideoPlay     bool
	VideoComplete bool
	Conversion    bool
}

// EventStore persists engagement events append-only in DuckDB.
// Dispatcher retries re-deliver events under their original ids when a
// response is lost after the server persisted, so inserts ignore rows
// whose id already exists instead of failing the batch.
type EventStore struct {
	conn *sql.DB
}

// NewEventStore opens (or creates) the DuckDB event database and
// ensures the schema exists.
func NewEventStore(ctx context.Context, cfg config.DatabaseConfig) (*EventStore, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for the database file
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &EventStore{conn: conn}
	if err := s.initSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *EventStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS engagement_events (
			id UUID PRIMARY KEY,
			subject_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			section TEXT,
			payload TEXT,

			-- Derived contribution columns for SQL-side aggregation.
			-- dwell_delta_sec is a per-visit delta (summed on read);
			-- clicks_total and video_total_sec are session-cumulative
			-- running totals (merged by max, then summed across sessions).
			dwell_delta_sec DOUBLE DEFAULT 0,
			scroll_pct INTEGER DEFAULT 0,
			clicks_total INTEGER DEFAULT 0,
			video_total_sec DOUBLE DEFAULT 0,
			video_play BOOLEAN DEFAULT FALSE,
			video_complete BOOLEAN DEFAULT FALSE,
			conversion BOOLEAN DEFAULT FALSE,

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_subject ON engagement_events (subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_subject_section ON engagement_events (subject_id, section)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// InsertEvents appends a batch of events in one transaction. Rows with
// an already-persisted id are skipped so a retried batch never fails
// the fresh events delivered alongside it.
func (s *EventStore) InsertEvents(ctx context.Context, events []StoredEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO engagement_events
		(id, subject_id, session_id, event_type, ts, section, payload,
		 dwell_delta_sec, scroll_pct, clicks_total, video_total_sec,
		 video_play, video_complete, conversion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, se := range events {
		e := se.Event
		if _, err := stmt.ExecContext(ctx,
			e.EventID, e.SubjectID, e.SessionID, string(e.Type), e.Timestamp,
			e.CurrentSection, string(e.Data),
			se.DwellDeltaSec, se.ScrollPct, se.ClicksTotal, se.VideoTotalSec,
			se.VideoPlay, se.VideoComplete, se.Conversion,
		); err != nil {
			metrics.RecordDBQuery("INSERT", "engagement_events", time.Since(start), err)
			return fmt.Errorf("insert event %s: %w", e.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("INSERT", "engagement_events", time.Since(start), err)
		return fmt.Errorf("commit insert: %w", err)
	}
	metrics.RecordDBQuery("INSERT", "engagement_events", time.Since(start), nil)
	return nil
}

// Conn exposes the underlying connection for the aggregation read side.
func (s *EventStore) Conn() *sql.DB {
	return s.conn
}

// Ping verifies the connection for readiness checks.
func (s *EventStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database.
func (s *EventStore) Close() error {
	return s.conn.Close()
}
