// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/models"
)

type stubMetricsReader struct {
	rows []models.EngagementMetricsRow
	err  error
}

func (s *stubMetricsReader) RowsForSubject(string) ([]models.EngagementMetricsRow, error) {
	return s.rows, s.err
}

func TestRankSectionsContractOrder(t *testing.T) {
	sections := []models.AggregatedSectionSnapshot{
		{SectionID: "fees", DwellSeconds: 30, VideoSeconds: 0, Clicks: 1},
		{SectionID: "hero", DwellSeconds: 30, VideoSeconds: 20, Clicks: 0},
		{SectionID: "campus", DwellSeconds: 90, VideoSeconds: 0, Clicks: 0},
		{SectionID: "sports", DwellSeconds: 30, VideoSeconds: 0, Clicks: 5},
		{SectionID: "contact", DwellSeconds: 5, VideoSeconds: 0, Clicks: 0},
	}

	ranked := rankSections(sections, 5)

	want := []string{"campus", "hero", "sports", "fees", "contact"}
	for i, id := range want {
		if ranked[i].SectionID != id {
			t.Fatalf("rank[%d] = %s, want %s (full order %+v)", i, ranked[i].SectionID, id, ranked)
		}
	}
}

func TestRankSectionsTruncatesToTopN(t *testing.T) {
	sections := []models.AggregatedSectionSnapshot{
		{SectionID: "a", DwellSeconds: 3},
		{SectionID: "b", DwellSeconds: 2},
		{SectionID: "c", DwellSeconds: 1},
	}

	ranked := rankSections(sections, 2)
	if len(ranked) != 2 {
		t.Fatalf("got %d sections, want 2", len(ranked))
	}
	if ranked[0].SectionID != "a" || ranked[1].SectionID != "b" {
		t.Errorf("ranked = %+v", ranked)
	}
	// Input order untouched
	if sections[0].SectionID != "a" || len(sections) != 3 {
		t.Errorf("rankSections mutated its input: %+v", sections)
	}
}

func TestDegradedSnapshotFromMetricsRows(t *testing.T) {
	reader := &stubMetricsReader{rows: []models.EngagementMetricsRow{
		{SubjectID: "INQ-1", SessionID: "s1", TimeOnPageSec: 120, MaxScrollDepth: 60, TotalVisits: 1},
		{SubjectID: "INQ-1", SessionID: "s2", TimeOnPageSec: 80, MaxScrollDepth: 40, TotalVisits: 1},
	}}
	b := NewBuilder(nil, reader, nil, config.AggregateConfig{TopSections: 5})
	b.nowFunc = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	snap, err := b.degradedSnapshot("INQ-1")
	if err != nil {
		t.Fatalf("degraded snapshot: %v", err)
	}

	if !snap.Degraded {
		t.Error("Degraded = false, want true")
	}
	if !snap.HasSignals {
		t.Error("HasSignals = false, want true")
	}
	if len(snap.Sections) != 0 {
		t.Errorf("Sections = %+v, want empty", snap.Sections)
	}
	// dwell 200s -> 20, avg scroll 50 -> 25
	if snap.LeadScore != 45 {
		t.Errorf("LeadScore = %d, want 45", snap.LeadScore)
	}
	if snap.Narrative != CannedNarrative {
		t.Errorf("Narrative = %q, want canned text", snap.Narrative)
	}
	if snap.Totals.TimeOnPageMs != 200000 || snap.Totals.TotalVisits != 2 {
		t.Errorf("Totals = %+v", snap.Totals)
	}
}

func TestDegradedSnapshotNoRows(t *testing.T) {
	b := NewBuilder(nil, &stubMetricsReader{}, nil, config.AggregateConfig{TopSections: 5})

	snap, err := b.degradedSnapshot("INQ-404")
	if err != nil {
		t.Fatalf("degraded snapshot: %v", err)
	}
	if snap.HasSignals {
		t.Error("HasSignals = true for subject with no rows")
	}
	if snap.LeadScore != MinLeadScore {
		t.Errorf("LeadScore = %d, want placeholder %d", snap.LeadScore, MinLeadScore)
	}
}

func TestDegradedSnapshotStoreFailure(t *testing.T) {
	b := NewBuilder(nil, &stubMetricsReader{err: errors.New("store down")}, nil, config.AggregateConfig{TopSections: 5})
	if _, err := b.degradedSnapshot("INQ-1"); err == nil {
		t.Fatal("expected error when both stores are unreachable")
	}
}

func TestTemplateNarrativeDeterministic(t *testing.T) {
	snap := &models.EngagementSnapshot{
		SubjectID:  "INQ-1",
		HasSignals: true,
		LeadScore:  72,
		Sections: []models.AggregatedSectionSnapshot{
			{SectionID: "campus-tour", DwellSeconds: 95, VideoSeconds: 60},
		},
		Totals: models.EngagementTotals{
			TimeOnPageMs: 180000,
			VideoMs:      60000,
			Clicks:       3,
			ScrollDepth:  85,
			TotalVisits:  2,
		},
	}

	first, firstHL := templateNarrative(snap)
	second, secondHL := templateNarrative(snap)
	if first != second {
		t.Fatalf("narrative not deterministic:\n%q\n%q", first, second)
	}
	if len(firstHL) != len(secondHL) {
		t.Fatalf("highlights not deterministic")
	}

	if !strings.Contains(first, "Highly engaged") {
		t.Errorf("narrative missing engagement tier: %q", first)
	}
	if !strings.Contains(first, "campus-tour") {
		t.Errorf("narrative missing top section: %q", first)
	}
	if !strings.Contains(first, "2 visits") {
		t.Errorf("narrative missing visit count: %q", first)
	}
	if len(firstHL) != 4 {
		t.Errorf("highlights = %v, want 4 entries", firstHL)
	}
}

func TestTotalsFromCombinesSources(t *testing.T) {
	sections := []models.AggregatedSectionSnapshot{
		{SectionID: "a", DwellSeconds: 10, VideoSeconds: 5, Clicks: 2, MaxScrollPct: 90},
		{SectionID: "b", DwellSeconds: 20, VideoSeconds: 0, Clicks: 1, MaxScrollPct: 30},
	}
	rows := []models.EngagementMetricsRow{
		{TimeOnPageSec: 45, MaxScrollDepth: 70, TotalVisits: 1},
	}

	got := totalsFrom(sections, rows)
	if got.TimeOnPageMs != 45000 {
		t.Errorf("TimeOnPageMs = %d, want 45000 (page level from metrics rows)", got.TimeOnPageMs)
	}
	if got.VideoMs != 5000 {
		t.Errorf("VideoMs = %d, want 5000", got.VideoMs)
	}
	if got.Clicks != 3 {
		t.Errorf("Clicks = %d, want 3", got.Clicks)
	}
	if got.ScrollDepth != 90 {
		t.Errorf("ScrollDepth = %d, want 90", got.ScrollDepth)
	}
}

func TestTotalsFromSectionsOnly(t *testing.T) {
	sections := []models.AggregatedSectionSnapshot{
		{SectionID: "a", DwellSeconds: 12},
	}
	got := totalsFrom(sections, nil)
	if got.TimeOnPageMs != 12000 {
		t.Errorf("TimeOnPageMs = %d, want dwell-derived 12000", got.TimeOnPageMs)
	}
}
