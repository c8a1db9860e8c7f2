// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package audit

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store for logger tests.
type memStore struct {
	mu     sync.Mutex
	events []Event
}

func (m *memStore) Save(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *memStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if filter.Username != "" && e.Username != filter.Username {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	events, err := m.Query(ctx, filter)
	return int64(len(events)), err
}

func (m *memStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []Event
	var removed int64
	for _, e := range m.events {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return removed, nil
}

func (m *memStore) saved() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func TestLoggerWritesAsync(t *testing.T) {
	store := &memStore{}
	logger := NewLogger(store, DefaultConfig())

	logger.Log(&Event{
		Type:        EventTypeLoginFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Username:    "admin",
		Description: "dashboard login failed",
	})

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events := store.saved()
	if len(events) != 1 {
		t.Fatalf("saved %d events, want 1", len(events))
	}
	got := events[0]
	if got.Type != EventTypeLoginFailure {
		t.Errorf("Type = %q, want %q", got.Type, EventTypeLoginFailure)
	}
	if got.ID == "" {
		t.Error("expected generated event ID")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}

func TestLoggerDisabledDropsEvents(t *testing.T) {
	store := &memStore{}
	cfg := DefaultConfig()
	cfg.Enabled = false
	logger := NewLogger(store, cfg)

	logger.Log(&Event{Type: EventTypeLoginSuccess, Description: "x"})
	_ = logger.Close()

	if n := len(store.saved()); n != 0 {
		t.Errorf("saved %d events with logging disabled, want 0", n)
	}
}

func TestLoginHelpersCaptureRequestContext(t *testing.T) {
	store := &memStore{}
	logger := NewLogger(store, DefaultConfig())

	r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	r.Header.Set("User-Agent", "dashboard-test")

	logger.LogLoginSuccess(r, "admin")
	logger.LogLoginFailure(r, "intruder")
	_ = logger.Close()

	events := store.saved()
	if len(events) != 2 {
		t.Fatalf("saved %d events, want 2", len(events))
	}

	success := events[0]
	if success.Type != EventTypeLoginSuccess || success.Outcome != OutcomeSuccess {
		t.Errorf("first event = %q/%q, want login_success/success", success.Type, success.Outcome)
	}
	if success.SourceIP != "203.0.113.9" {
		t.Errorf("SourceIP = %q, want 203.0.113.9", success.SourceIP)
	}
	if success.UserAgent != "dashboard-test" {
		t.Errorf("UserAgent = %q, want dashboard-test", success.UserAgent)
	}

	failure := events[1]
	if failure.Type != EventTypeLoginFailure || failure.Username != "intruder" {
		t.Errorf("second event = %q for %q, want login_failure for intruder", failure.Type, failure.Username)
	}
}

func TestBatchRejectedHelperDistinguishesOversized(t *testing.T) {
	store := &memStore{}
	logger := NewLogger(store, DefaultConfig())

	r := httptest.NewRequest("POST", "/api/v1/track", nil)
	logger.LogBatchRejected(r, "fam-1", "oversized")
	logger.LogBatchRejected(r, "fam-2", "malformed")
	_ = logger.Close()

	events := store.saved()
	if len(events) != 2 {
		t.Fatalf("saved %d events, want 2", len(events))
	}
	if events[0].Type != EventTypeBatchOversized {
		t.Errorf("oversized rejection logged as %q", events[0].Type)
	}
	if events[1].Type != EventTypeBatchRejected {
		t.Errorf("malformed rejection logged as %q", events[1].Type)
	}
}

func TestCleanupRemovesExpiredEvents(t *testing.T) {
	store := &memStore{}
	old := Event{ID: "old", Timestamp: time.Now().AddDate(0, 0, -120), Type: EventTypeLoginFailure}
	fresh := Event{ID: "fresh", Timestamp: time.Now(), Type: EventTypeLoginSuccess}
	_ = store.Save(context.Background(), &old)
	_ = store.Save(context.Background(), &fresh)

	removed, err := store.DeleteBefore(context.Background(), time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d events, want 1", removed)
	}
	if events := store.saved(); len(events) != 1 || events[0].ID != "fresh" {
		t.Errorf("remaining events = %+v, want only fresh", events)
	}
}
