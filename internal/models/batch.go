// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package models

// DeviceInfo carries the static browser and device facts read once per
// session by the environment probe.
type DeviceInfo struct {
	UserAgent      string `json:"userAgent,omitempty"`
	ViewportWidth  int    `json:"viewportWidth,omitempty"`
	ViewportHeight int    `json:"viewportHeight,omitempty"`
	ScreenWidth    int    `json:"screenWidth,omitempty"`
	ScreenHeight   int    `json:"screenHeight,omitempty"`
	ConnectionType string `json:"connectionType,omitempty"`
	Language       string `json:"language,omitempty"`
	Platform       string `json:"platform,omitempty"`
}

// SessionInfo is the rolled-up session summary attached to each flushed
// batch. All counters are session-cumulative running totals, never
// deltas; the server merges them with monotonic-max semantics so that
// re-delivered heartbeats cannot double count.
type SessionInfo struct {
	SubjectID       string     `json:"subjectId" validate:"required"`
	SessionID       string     `json:"sessionId" validate:"required"`
	TimeOnPageSec   float64    `json:"timeOnPage" validate:"gte=0"`
	MaxScrollDepth  int        `json:"maxScrollDepth" validate:"gte=0,lte=100"`
	ClickCount      int        `json:"clickCount" validate:"gte=0"`
	SectionViews    int        `json:"sectionViews" validate:"gte=0"`
	DeviceInfo      DeviceInfo `json:"deviceInfo"`
	SessionComplete bool       `json:"sessionComplete,omitempty"`
}

// TrackBatch is the ingestion request body: drained events plus an
// optional session summary.
type TrackBatch struct {
	Events      []Event      `json:"events"`
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
}

// TrackResponse is the ingestion response body. EventsProcessed counts
// the events actually persisted; malformed events are skipped, not
// counted, and never fail the batch.
type TrackResponse struct {
	Success         bool   `json:"success"`
	EventsProcessed int    `json:"eventsProcessed"`
	Error           string `json:"error,omitempty"`
}
