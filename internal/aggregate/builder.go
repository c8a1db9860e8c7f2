// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/metrics"
	"github.com/admitlens/admitlens/internal/models"
)

// MetricsReader provides the session metrics rows used for totals and
// for the coarse fallback when the event store is unreachable.
type MetricsReader interface {
	RowsForSubject(subjectID string) ([]models.EngagementMetricsRow, error)
}

// Builder assembles per-subject engagement snapshots from the event
// store, falling back to the session metrics rows when the store read
// fails. The snapshot is derived on every call; nothing here is cached.
type Builder struct {
	db         *sql.DB
	store      MetricsReader
	summarizer Summarizer
	cfg        config.AggregateConfig
	nowFunc    func() time.Time
}

// NewBuilder creates a snapshot builder. The summarizer is optional; a
// nil summarizer always uses the deterministic template narrative.
func NewBuilder(db *sql.DB, store MetricsReader, summarizer Summarizer, cfg config.AggregateConfig) *Builder {
	if cfg.TopSections <= 0 {
		cfg.TopSections = 5
	}
	return &Builder{
		db:         db,
		store:      store,
		summarizer: summarizer,
		cfg:        cfg,
		nowFunc:    time.Now,
	}
}

// Per-session inner grouping first: dwell deltas sum within a session,
// while clicks, video seconds, and scroll are session-cumulative running
// totals that must merge by max before summing across sessions.
// Otherwise re-delivered heartbeats would inflate every total.
const sectionQuery = `
WITH per_session AS (
	SELECT session_id, section,
	       SUM(dwell_delta_sec) AS dwell_sec,
	       MAX(video_total_sec) AS video_sec,
	       MAX(clicks_total)    AS clicks,
	       MAX(scroll_pct)      AS scroll_pct
	FROM engagement_events
	WHERE subject_id = ? AND section IS NOT NULL AND section <> ''
	GROUP BY session_id, section
)
SELECT section,
       SUM(dwell_sec)  AS dwell_sec,
       SUM(video_sec)  AS video_sec,
       SUM(clicks)     AS clicks,
       MAX(scroll_pct) AS scroll_pct
FROM per_session
GROUP BY section`

const videoCountQuery = `
SELECT
	COUNT(*) FILTER (WHERE event_type = 'video_play')     AS plays,
	COUNT(*) FILTER (WHERE event_type = 'video_complete') AS completes
FROM engagement_events
WHERE subject_id = ?`

// Snapshot builds the engagement snapshot for one subject. Event-store
// read failures degrade to a coarse snapshot from the metrics rows
// rather than failing the read; only a subject with no telemetry at all
// comes back with HasSignals=false.
func (b *Builder) Snapshot(ctx context.Context, subjectID string) (*models.EngagementSnapshot, error) {
	start := time.Now()

	sections, err := b.querySections(ctx, subjectID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("subject_id", subjectID).
			Msg("Event store read failed, building degraded snapshot")
		snap, derr := b.degradedSnapshot(subjectID)
		metrics.RecordSnapshotBuild(time.Since(start), true)
		return snap, derr
	}

	plays, completes, err := b.queryVideoCounts(ctx, subjectID)
	if err != nil {
		snap, derr := b.degradedSnapshot(subjectID)
		metrics.RecordSnapshotBuild(time.Since(start), true)
		return snap, derr
	}

	rows, err := b.store.RowsForSubject(subjectID)
	if err != nil {
		// Totals lose visit counts but the event-derived core survives.
		logging.Ctx(ctx).Warn().Err(err).Msg("Metrics store read failed, totals incomplete")
		rows = nil
	}

	snap := &models.EngagementSnapshot{
		SubjectID:  subjectID,
		HasSignals: len(sections) > 0 || len(rows) > 0,
		Totals:     totalsFrom(sections, rows),
		BuiltAt:    b.nowFunc().UTC(),
	}

	if !snap.HasSignals {
		snap.LeadScore = MinLeadScore
		snap.Sections = []models.AggregatedSectionSnapshot{}
		snap.Narrative = CannedNarrative
		metrics.RecordNarrative(narrativeSourceCanned)
		metrics.RecordSnapshotBuild(time.Since(start), false)
		return snap, nil
	}

	dwellTotal, avgScroll := dwellAndScroll(sections, rows)
	snap.LeadScore = LeadScore(dwellTotal, avgScroll, completes, plays)
	snap.Sections = rankSections(sections, b.cfg.TopSections)
	b.narrate(ctx, snap)

	metrics.RecordSnapshotBuild(time.Since(start), false)
	return snap, nil
}

func (b *Builder) querySections(ctx context.Context, subjectID string) ([]models.AggregatedSectionSnapshot, error) {
	start := time.Now()
	rows, err := b.db.QueryContext(ctx, sectionQuery, subjectID)
	metrics.RecordDBQuery("SELECT", "engagement_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sections []models.AggregatedSectionSnapshot
	for rows.Next() {
		var s models.AggregatedSectionSnapshot
		if err := rows.Scan(&s.SectionID, &s.DwellSeconds, &s.VideoSeconds, &s.Clicks, &s.MaxScrollPct); err != nil {
			return nil, fmt.Errorf("scan section row: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section rows: %w", err)
	}
	return sections, nil
}

func (b *Builder) queryVideoCounts(ctx context.Context, subjectID string) (plays, completes int, err error) {
	start := time.Now()
	err = b.db.QueryRowContext(ctx, videoCountQuery, subjectID).Scan(&plays, &completes)
	metrics.RecordDBQuery("SELECT", "engagement_events", time.Since(start), err)
	if err != nil {
		return 0, 0, fmt.Errorf("query video counts: %w", err)
	}
	return plays, completes, nil
}

// degradedSnapshot rebuilds coarsely from the metrics rows alone: no
// per-section breakdown, score from page-level dwell and scroll only.
// The Degraded flag tells the caller not to trust the empty section
// list as "visitor read nothing".
func (b *Builder) degradedSnapshot(subjectID string) (*models.EngagementSnapshot, error) {
	rows, err := b.store.RowsForSubject(subjectID)
	if err != nil {
		return nil, fmt.Errorf("degraded snapshot: %w", err)
	}

	snap := &models.EngagementSnapshot{
		SubjectID:  subjectID,
		HasSignals: len(rows) > 0,
		Degraded:   true,
		Sections:   []models.AggregatedSectionSnapshot{},
		Totals:     totalsFrom(nil, rows),
		BuiltAt:    b.nowFunc().UTC(),
	}
	if !snap.HasSignals {
		snap.LeadScore = MinLeadScore
		snap.Narrative = CannedNarrative
		metrics.RecordNarrative(narrativeSourceCanned)
		return snap, nil
	}

	var dwell, scrollSum float64
	for _, r := range rows {
		dwell += r.TimeOnPageSec
		scrollSum += float64(r.MaxScrollDepth)
	}
	snap.LeadScore = LeadScore(dwell, scrollSum/float64(len(rows)), 0, 0)
	snap.Narrative = CannedNarrative
	metrics.RecordNarrative(narrativeSourceCanned)
	return snap, nil
}

// narrate fills Narrative and Highlights, preferring the external
// summarizer and falling back to the deterministic template.
func (b *Builder) narrate(ctx context.Context, snap *models.EngagementSnapshot) {
	if b.summarizer != nil {
		result, err := b.summarizer.Summarize(ctx, snap)
		if err == nil {
			snap.Narrative = result.Narrative
			snap.Highlights = result.Highlights
			metrics.RecordNarrative(narrativeSourceSummarizer)
			return
		}
		logging.Ctx(ctx).Debug().Err(err).Msg("Summarizer unavailable, using template narrative")
	}
	snap.Narrative, snap.Highlights = templateNarrative(snap)
	metrics.RecordNarrative(narrativeSourceTemplate)
}

// rankSections orders by dwell descending, ties broken by video seconds
// then clicks, both descending. This exact order is a contract with the
// dashboard; do not reorder the comparisons.
func rankSections(sections []models.AggregatedSectionSnapshot, topN int) []models.AggregatedSectionSnapshot {
	ranked := make([]models.AggregatedSectionSnapshot, len(sections))
	copy(ranked, sections)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DwellSeconds != ranked[j].DwellSeconds {
			return ranked[i].DwellSeconds > ranked[j].DwellSeconds
		}
		if ranked[i].VideoSeconds != ranked[j].VideoSeconds {
			return ranked[i].VideoSeconds > ranked[j].VideoSeconds
		}
		return ranked[i].Clicks > ranked[j].Clicks
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// totalsFrom combines event-derived section rollups with the metrics
// rows. Page time, scroll, and visit counts come from the metrics rows
// (page level, not section level); video and clicks from the sections
// when available.
func totalsFrom(sections []models.AggregatedSectionSnapshot, rows []models.EngagementMetricsRow) models.EngagementTotals {
	var t models.EngagementTotals

	for _, r := range rows {
		t.TimeOnPageMs += int64(r.TimeOnPageSec * 1000)
		t.TotalVisits += r.TotalVisits
		if r.MaxScrollDepth > t.ScrollDepth {
			t.ScrollDepth = r.MaxScrollDepth
		}
	}
	for _, s := range sections {
		t.VideoMs += int64(s.VideoSeconds * 1000)
		t.Clicks += s.Clicks
		if s.MaxScrollPct > t.ScrollDepth {
			t.ScrollDepth = s.MaxScrollPct
		}
	}
	if len(sections) > 0 && len(rows) == 0 {
		for _, s := range sections {
			t.TimeOnPageMs += int64(s.DwellSeconds * 1000)
		}
	}
	return t
}

// dwellAndScroll derives the score inputs: total dwell from the section
// rollups, average scroll across sections (page-level rows when no
// sections carry scroll).
func dwellAndScroll(sections []models.AggregatedSectionSnapshot, rows []models.EngagementMetricsRow) (float64, float64) {
	var dwell, scrollSum float64
	scrollN := 0

	for _, s := range sections {
		dwell += s.DwellSeconds
		if s.MaxScrollPct > 0 {
			scrollSum += float64(s.MaxScrollPct)
			scrollN++
		}
	}
	if len(sections) == 0 {
		for _, r := range rows {
			dwell += r.TimeOnPageSec
		}
	}
	if scrollN == 0 {
		for _, r := range rows {
			if r.MaxScrollDepth > 0 {
				scrollSum += float64(r.MaxScrollDepth)
				scrollN++
			}
		}
	}
	if scrollN == 0 {
		return dwell, 0
	}
	return dwell, scrollSum / float64(scrollN)
}
