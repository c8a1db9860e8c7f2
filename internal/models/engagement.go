// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package models

import "time"

// EngagementMetricsRow is the per-(subject, session) aggregate row
// maintained by ingestion. All fields merge monotonically: max for the
// running totals the client reports, additive only for counters the
// server itself owns (PagesViewed, TotalVisits).
type EngagementMetricsRow struct {
	SubjectID      string    `json:"subjectId"`
	SessionID      string    `json:"sessionId"`
	TimeOnPageSec  float64   `json:"timeOnPageSec"`
	MaxScrollDepth int       `json:"maxScrollDepth"`
	ClicksOnLinks  int       `json:"clicksOnLinks"`
	SectionViews   int       `json:"sectionViews"`
	PagesViewed    int       `json:"pagesViewed"`
	TotalVisits    int       `json:"totalVisits"`
	FirstVisitAt   time.Time `json:"firstVisitAt"`
	LastVisitAt    time.Time `json:"lastVisitAt"`
	DeviceInfo     DeviceInfo `json:"deviceInfo"`
}

// AggregatedSectionSnapshot is the derived per-section rollup for one
// subject, summed across all of the subject's sessions.
type AggregatedSectionSnapshot struct {
	SectionID    string  `json:"sectionId"`
	DwellSeconds float64 `json:"dwellSeconds"`
	VideoSeconds float64 `json:"videoSeconds"`
	Clicks       int     `json:"clicks"`
	MaxScrollPct int     `json:"maxScrollPct"`
}

// EngagementTotals summarizes a subject's activity across sections.
type EngagementTotals struct {
	TimeOnPageMs int64 `json:"timeOnPageMs"`
	VideoMs      int64 `json:"videoMs"`
	Clicks       int   `json:"clicks"`
	ScrollDepth  int   `json:"scrollDepth"`
	TotalVisits  int   `json:"totalVisits"`
}

// EngagementSnapshot is the read-side view consumed by the dashboard
// and the narrative summarizer.
//
// HasSignals distinguishes "no telemetry recorded" from "low
// engagement": when false, LeadScore carries the placeholder minimum
// and Narrative the canned limited-tracking text. Degraded is set when
// the event store was unreachable and the snapshot was rebuilt coarsely
// from the session metrics rows alone (Sections empty).
type EngagementSnapshot struct {
	SubjectID  string                      `json:"subjectId"`
	HasSignals bool                        `json:"hasSignals"`
	Degraded   bool                        `json:"degraded,omitempty"`
	Sections   []AggregatedSectionSnapshot `json:"sections"`
	Totals     EngagementTotals            `json:"totals"`
	LeadScore  int                         `json:"leadScore"`
	Narrative  string                      `json:"narrative"`
	Highlights []string                    `json:"highlights,omitempty"`
	BuiltAt    time.Time                   `json:"builtAt"`
}

// SubjectActivity is one row of the dashboard subject list, derived
// from the metrics rows only (no event-store read).
type SubjectActivity struct {
	SubjectID     string    `json:"subjectId"`
	Sessions      int       `json:"sessions"`
	TimeOnPageSec float64   `json:"timeOnPageSec"`
	LastVisitAt   time.Time `json:"lastVisitAt"`
}
