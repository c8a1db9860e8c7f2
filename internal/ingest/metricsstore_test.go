// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/models"
)

func newTestMetricsStore(t *testing.T) *MetricsStore {
	t.Helper()
	store, err := OpenMetricsStore(config.MetricsStoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open metrics store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sessionSummary(subject, session string, timeOnPage float64, scroll, clicks int) *models.SessionInfo {
	return &models.SessionInfo{
		SubjectID:      subject,
		SessionID:      session,
		TimeOnPageSec:  timeOnPage,
		MaxScrollDepth: scroll,
		ClickCount:     clicks,
		SectionViews:   3,
		DeviceInfo:     models.DeviceInfo{UserAgent: "test-agent", Platform: "linux"},
	}
}

func TestMergeCreatesRow(t *testing.T) {
	store := newTestMetricsStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	row, err := store.Merge(sessionSummary("INQ-1", "sess-a", 42.5, 60, 2), now)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if row.TimeOnPageSec != 42.5 {
		t.Errorf("TimeOnPageSec = %v, want 42.5", row.TimeOnPageSec)
	}
	if row.MaxScrollDepth != 60 {
		t.Errorf("MaxScrollDepth = %d, want 60", row.MaxScrollDepth)
	}
	if row.PagesViewed != 1 {
		t.Errorf("PagesViewed = %d, want 1", row.PagesViewed)
	}
	if row.TotalVisits != 1 {
		t.Errorf("TotalVisits = %d, want 1", row.TotalVisits)
	}
	if !row.FirstVisitAt.Equal(now) || !row.LastVisitAt.Equal(now) {
		t.Errorf("visit times = %v / %v, want %v", row.FirstVisitAt, row.LastVisitAt, now)
	}
	if row.DeviceInfo.UserAgent != "test-agent" {
		t.Errorf("DeviceInfo.UserAgent = %q", row.DeviceInfo.UserAgent)
	}
}

func TestMergeIsMonotonic(t *testing.T) {
	store := newTestMetricsStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Merge(sessionSummary("INQ-1", "sess-a", 100, 80, 5), now); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	// A regressed summary, as delivered by a duplicate of an older batch
	row, err := store.Merge(sessionSummary("INQ-1", "sess-a", 40, 30, 1), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if row.TimeOnPageSec != 100 {
		t.Errorf("TimeOnPageSec = %v, want 100", row.TimeOnPageSec)
	}
	if row.MaxScrollDepth != 80 {
		t.Errorf("MaxScrollDepth = %d, want 80", row.MaxScrollDepth)
	}
	if row.ClicksOnLinks != 5 {
		t.Errorf("ClicksOnLinks = %d, want 5", row.ClicksOnLinks)
	}
	if row.PagesViewed != 2 {
		t.Errorf("PagesViewed = %d, want 2", row.PagesViewed)
	}
	if row.TotalVisits != 1 {
		t.Errorf("TotalVisits = %d, want 1 (same session)", row.TotalVisits)
	}
	if !row.FirstVisitAt.Equal(now) {
		t.Errorf("FirstVisitAt moved to %v", row.FirstVisitAt)
	}
	if !row.LastVisitAt.Equal(now.Add(time.Minute)) {
		t.Errorf("LastVisitAt = %v, want advanced", row.LastVisitAt)
	}
}

func TestMergeNewSessionStartsFresh(t *testing.T) {
	store := newTestMetricsStore(t)
	now := time.Now().UTC()

	if _, err := store.Merge(sessionSummary("INQ-1", "sess-a", 100, 80, 5), now); err != nil {
		t.Fatalf("merge sess-a: %v", err)
	}
	row, err := store.Merge(sessionSummary("INQ-1", "sess-b", 10, 20, 0), now)
	if err != nil {
		t.Fatalf("merge sess-b: %v", err)
	}

	if row.TimeOnPageSec != 10 {
		t.Errorf("new session TimeOnPageSec = %v, want 10", row.TimeOnPageSec)
	}
	if row.TotalVisits != 1 {
		t.Errorf("new session TotalVisits = %d, want 1", row.TotalVisits)
	}

	rows, err := store.RowsForSubject("INQ-1")
	if err != nil {
		t.Fatalf("rows for subject: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestRowNotFound(t *testing.T) {
	store := newTestMetricsStore(t)
	if _, err := store.Row("INQ-404", "sess-x"); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("err = %v, want ErrRowNotFound", err)
	}
}

func TestSubjectsRollup(t *testing.T) {
	store := newTestMetricsStore(t)
	early := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	if _, err := store.Merge(sessionSummary("INQ-1", "sess-a", 30, 50, 1), early); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := store.Merge(sessionSummary("INQ-1", "sess-b", 70, 50, 1), late); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := store.Merge(sessionSummary("INQ-2", "sess-c", 5, 10, 0), early); err != nil {
		t.Fatalf("merge: %v", err)
	}

	subjects, err := store.Subjects()
	if err != nil {
		t.Fatalf("subjects: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("got %d subjects, want 2", len(subjects))
	}

	byID := make(map[string]models.SubjectActivity, len(subjects))
	for _, s := range subjects {
		byID[s.SubjectID] = s
	}

	one := byID["INQ-1"]
	if one.Sessions != 2 {
		t.Errorf("INQ-1 Sessions = %d, want 2", one.Sessions)
	}
	if one.TimeOnPageSec != 100 {
		t.Errorf("INQ-1 TimeOnPageSec = %v, want 100", one.TimeOnPageSec)
	}
	if !one.LastVisitAt.Equal(late) {
		t.Errorf("INQ-1 LastVisitAt = %v, want %v", one.LastVisitAt, late)
	}
	if byID["INQ-2"].Sessions != 1 {
		t.Errorf("INQ-2 Sessions = %d, want 1", byID["INQ-2"].Sessions)
	}

	count, err := store.SessionCount()
	if err != nil {
		t.Fatalf("session count: %v", err)
	}
	if count != 3 {
		t.Errorf("SessionCount = %d, want 3", count)
	}
}
