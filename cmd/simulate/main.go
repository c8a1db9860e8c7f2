// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package main is a scripted visitor simulator for AdmitLens.
//
// It drives a full tracker session against a running server: the
// visitor reads through the prospectus sections, scrolls, clicks, plays
// the campus tour video, and submits a visit booking form. Batches are
// posted to /api/v1/track exactly as the embedded tracker would post
// them, which makes the tool useful for demos and for smoke-testing an
// installation end to end.
//
// Usage:
//
//	simulate -url http://localhost:8411 -subject family-demo-1
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/admitlens/admitlens/internal/models"
	"github.com/admitlens/admitlens/internal/tracker"
)

// scriptedViewport is a VisibilityProvider driven by the script instead
// of a real browser viewport. The simulator sets which section is in
// view and how far it has scrolled; everything else reports zero.
type scriptedViewport struct {
	visible   string
	scrollPct map[string]int
}

func newScriptedViewport() *scriptedViewport {
	return &scriptedViewport{scrollPct: make(map[string]int)}
}

func (v *scriptedViewport) VisibleRatio(sectionID string) float64 {
	if sectionID == v.visible {
		return 1.0
	}
	return 0
}

func (v *scriptedViewport) ScrollPercent(sectionID string) int {
	return v.scrollPct[sectionID]
}

// look points the viewport at a section.
func (v *scriptedViewport) look(sectionID string) {
	v.visible = sectionID
}

// scroll advances the scroll position within a section.
func (v *scriptedViewport) scroll(sectionID string, pct int) {
	v.scrollPct[sectionID] = pct
}

// step is one beat of the visitor script.
type step struct {
	dwell  time.Duration
	action func(s *tracker.Session, vp *scriptedViewport)
}

func main() {
	var (
		serverURL = flag.String("url", "http://localhost:8411", "AdmitLens server base URL")
		subjectID = flag.String("subject", "family-demo-1", "subject (family) identifier")
		sessionID = flag.String("session", "", "session id (default: generated)")
	)
	flag.Parse()

	clock := tracker.NewManualClock(time.Now())
	viewport := newScriptedViewport()

	session := tracker.NewSession(*subjectID, *sessionID, tracker.DefaultConfig(), tracker.Deps{
		Clock:      clock,
		Transport:  tracker.NewHTTPTransport(*serverURL+"/api/v1/track", 5*time.Second),
		Visibility: viewport,
		Probe: tracker.StaticProbe{Info: models.DeviceInfo{
			UserAgent:      "AdmitLens-Simulator/1.0",
			ViewportWidth:  1280,
			ViewportHeight: 800,
			Language:       "en-GB",
			Platform:       "simulator",
		}},
	})

	for id, meta := range map[string]tracker.SectionMeta{
		"hero":        {WordCount: 80, PositionIndex: 0},
		"academics":   {WordCount: 640, PositionIndex: 1},
		"campus-tour": {WordCount: 120, PositionIndex: 2},
		"fees":        {WordCount: 420, PositionIndex: 3},
		"visit":       {WordCount: 200, PositionIndex: 4},
	} {
		session.RegisterSection(id, meta)
	}
	session.DiscoverVideo("campus-tour-video", 180)

	script := []step{
		{0, func(s *tracker.Session, vp *scriptedViewport) {
			vp.look("hero")
			s.EnterSection("hero")
		}},
		{8 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			vp.scroll("hero", 100)
			vp.look("academics")
			s.EnterSection("academics")
		}},
		{25 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			vp.scroll("academics", 70)
			s.Click()
		}},
		{20 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			vp.scroll("academics", 100)
			vp.look("campus-tour")
			s.EnterSection("campus-tour")
		}},
		{5 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			s.VideoStateChanged("campus-tour-video", tracker.PlayerPlaying)
		}},
		{90 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			s.VideoStateChanged("campus-tour-video", tracker.PlayerPaused)
			vp.look("fees")
			s.EnterSection("fees")
		}},
		{40 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			vp.scroll("fees", 90)
			vp.look("visit")
			s.EnterSection("visit")
		}},
		{10 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			s.LinkClicked("/admissions/book-a-visit", "Book a visit")
			s.FormFieldFocused("parent_email")
		}},
		{30 * time.Second, func(s *tracker.Session, vp *scriptedViewport) {
			s.FormSubmitted("visit-booking")
		}},
	}

	for _, st := range script {
		if st.dwell > 0 {
			advance(clock, session, st.dwell)
		}
		st.action(session, viewport)
		session.EvaluateVisibility()
	}

	// End of visit: final dwell, surface any transport failure, then
	// leave the page (Unload performs its own best-effort flush)
	advance(clock, session, 5*time.Second)
	if err := session.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush failed: %v\n", err)
		os.Exit(1)
	}
	session.Unload()

	fmt.Printf("session %s: engagement score %d, conversion probability %d%%\n",
		session.SessionID(), session.EngagementScore(), session.ConversionProbability())
}

// advance steps the manual clock in attention-poll sized increments so
// idle detection and section dwell accumulate the way they would under
// the real tickers.
func advance(clock *tracker.ManualClock, session *tracker.Session, d time.Duration) {
	const tick = time.Second
	for elapsed := time.Duration(0); elapsed < d; elapsed += tick {
		clock.Advance(tick)
		session.Activity()
		session.PollAttention()
		session.Tick()
	}
}
