// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

func setupAuditDB(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewDuckDBStore(db)
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return store
}

func TestDuckDBStoreSaveAndQuery(t *testing.T) {
	store := setupAuditDB(t)
	ctx := context.Background()

	events := []Event{
		{
			ID: "e1", Timestamp: time.Now().Add(-time.Hour),
			Type: EventTypeLoginFailure, Severity: SeverityWarning, Outcome: OutcomeFailure,
			Username: "intruder", SourceIP: "203.0.113.9",
			Description: "dashboard login failed",
		},
		{
			ID: "e2", Timestamp: time.Now(),
			Type: EventTypeLoginSuccess, Severity: SeverityInfo, Outcome: OutcomeSuccess,
			Username: "admin", Metadata: []byte(`{"mode":"jwt"}`),
			Description: "dashboard login succeeded",
		},
		{
			ID: "e3", Timestamp: time.Now(),
			Type: EventTypeBatchOversized, Severity: SeverityWarning, Outcome: OutcomeFailure,
			SubjectID:   "fam-1",
			Description: "tracking batch rejected: oversized",
		},
	}
	for i := range events {
		if err := store.Save(ctx, &events[i]); err != nil {
			t.Fatalf("save %s: %v", events[i].ID, err)
		}
	}

	t.Run("query all newest first", func(t *testing.T) {
		got, err := store.Query(ctx, QueryFilter{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d events, want 3", len(got))
		}
		if got[len(got)-1].ID != "e1" {
			t.Errorf("oldest event last = %q, want e1", got[len(got)-1].ID)
		}
	})

	t.Run("filter by type", func(t *testing.T) {
		got, err := store.Query(ctx, QueryFilter{
			Types: []EventType{EventTypeLoginFailure, EventTypeLoginSuccess},
		})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d login events, want 2", len(got))
		}
	})

	t.Run("filter by username", func(t *testing.T) {
		got, err := store.Query(ctx, QueryFilter{Username: "admin"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 1 || got[0].ID != "e2" {
			t.Fatalf("got %+v, want only e2", got)
		}
		if string(got[0].Metadata) != `{"mode":"jwt"}` {
			t.Errorf("metadata = %s", got[0].Metadata)
		}
	})

	t.Run("count with time bounds", func(t *testing.T) {
		count, err := store.Count(ctx, QueryFilter{Since: time.Now().Add(-10 * time.Minute)})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})
}

func TestDuckDBStoreDeleteBefore(t *testing.T) {
	store := setupAuditDB(t)
	ctx := context.Background()

	old := Event{
		ID: "old", Timestamp: time.Now().AddDate(0, 0, -120),
		Type: EventTypeLoginFailure, Severity: SeverityWarning, Outcome: OutcomeFailure,
		Description: "stale",
	}
	fresh := Event{
		ID: "fresh", Timestamp: time.Now(),
		Type: EventTypeLoginSuccess, Severity: SeverityInfo, Outcome: OutcomeSuccess,
		Description: "recent",
	}
	for _, e := range []Event{old, fresh} {
		ev := e
		if err := store.Save(ctx, &ev); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	removed, err := store.DeleteBefore(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	remaining, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "fresh" {
		t.Errorf("remaining = %+v, want only fresh", remaining)
	}
}
