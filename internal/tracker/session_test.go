// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/models"
)

func newTestSession(t *testing.T) (*Session, *ManualClock, *fakeTransport, *scriptedVisibility) {
	t.Helper()
	clock := NewManualClock(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	transport := &fakeTransport{}
	provider := newScriptedVisibility()
	cfg := DefaultConfig()
	s := NewSession("subj-1", "sess-1", cfg, Deps{
		Clock:      clock,
		Transport:  transport,
		Visibility: provider,
		Probe:      StaticProbe{Info: models.DeviceInfo{UserAgent: "test-agent", ViewportWidth: 1280}},
	})
	s.RegisterSection("hero", SectionMeta{WordCount: 120, PositionIndex: 0})
	s.RegisterSection("fees", SectionMeta{WordCount: 300, PositionIndex: 1})
	return s, clock, transport, provider
}

func lastBatch(t *testing.T, transport *fakeTransport) models.TrackBatch {
	t.Helper()
	if len(transport.sent) == 0 {
		t.Fatal("no batch sent")
	}
	var batch models.TrackBatch
	if err := json.Unmarshal(transport.sent[len(transport.sent)-1], &batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	return batch
}

func TestSessionGeneratesIDs(t *testing.T) {
	s := NewSession("", "", DefaultConfig(), Deps{Transport: &fakeTransport{}})
	if s.SessionID() == "" {
		t.Error("expected generated session id")
	}
	if s.subjectID != models.SubjectUnknown {
		t.Errorf("expected UNKNOWN subject, got %q", s.subjectID)
	}
}

func TestSessionHeartbeatCarriesSummary(t *testing.T) {
	s, clock, transport, _ := newTestSession(t)

	s.EnterSection("hero")
	clock.Advance(10 * time.Second)
	s.Tick()
	s.Click()
	s.Heartbeat()

	batch := lastBatch(t, transport)
	info := batch.SessionInfo
	if info == nil {
		t.Fatal("expected session info on batch")
	}
	if info.SubjectID != "subj-1" || info.SessionID != "sess-1" {
		t.Errorf("unexpected identity: %+v", info)
	}
	if info.TimeOnPageSec != 10 {
		t.Errorf("expected 10s on page, got %v", info.TimeOnPageSec)
	}
	if info.ClickCount != 1 || info.SectionViews != 1 {
		t.Errorf("unexpected counters: %+v", info)
	}
	if info.DeviceInfo.UserAgent != "test-agent" {
		t.Errorf("expected device snapshot attached, got %+v", info.DeviceInfo)
	}
}

func TestSessionPageHiddenFlushesAndExits(t *testing.T) {
	s, clock, transport, _ := newTestSession(t)

	s.EnterSection("hero")
	clock.Advance(5 * time.Second)
	s.PageHidden()

	if got := s.sections.CurrentSection(); got != "" {
		t.Errorf("expected section exited on page hide, got %q", got)
	}
	batch := lastBatch(t, transport)

	var sawExit, sawAttention bool
	for _, e := range batch.Events {
		switch e.Type {
		case models.EventSectionExit:
			sawExit = true
		case models.EventAttentionChange:
			sawAttention = true
		}
	}
	if !sawExit || !sawAttention {
		t.Errorf("expected section_exit and attention_state_change in flush, got %+v", batch.Events)
	}
	if s.IsAttended() {
		t.Error("expected unattended after page hide")
	}
}

func TestSessionUnloadFinalFlush(t *testing.T) {
	s, clock, transport, _ := newTestSession(t)

	s.EnterSection("hero")
	clock.Advance(3 * time.Second)
	s.Unload()

	batch := lastBatch(t, transport)
	if len(batch.Events) == 0 {
		t.Fatal("expected events in unload flush")
	}
	st, _ := s.SectionState("hero")
	if st.DwellSeconds != 3 {
		t.Errorf("expected dwell retained after unload, got %v", st.DwellSeconds)
	}
}

func TestSessionConversionSignalsFeedScores(t *testing.T) {
	s, clock, _, _ := newTestSession(t)

	s.EnterSection("hero")
	clock.Advance(30 * time.Second)
	s.Tick()
	before := s.ConversionProbability()

	s.FormFieldFocused("email")
	s.FormSubmitted("inquiry")
	after := s.ConversionProbability()

	if after <= before {
		t.Errorf("expected conversion probability to rise with signals: %d -> %d", before, after)
	}
}

func TestSessionConversionLinkDetection(t *testing.T) {
	tests := []struct {
		href, text string
		want       bool
	}{
		{"/apply-now", "Start", true},
		{"/fees", "How to Apply", true},
		{"/contact", "", true},
		{"/news/2026", "Latest news", false},
		{"https://school.example/visit", "", true},
	}
	for _, tt := range tests {
		if got := isConversionLink(tt.href, tt.text); got != tt.want {
			t.Errorf("isConversionLink(%q, %q) = %v, want %v", tt.href, tt.text, got, tt.want)
		}
	}
}

func TestSessionLinkClickedEmitsHighPriority(t *testing.T) {
	s, _, transport, _ := newTestSession(t)

	s.EnterSection("hero")
	s.LinkClicked("/apply", "Apply today")
	s.Heartbeat()

	batch := lastBatch(t, transport)
	var found bool
	for _, e := range batch.Events {
		if e.Type == models.EventLinkClick {
			found = true
			var p models.LinkClickPayload
			if err := json.Unmarshal(e.Data, &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !p.Conversion {
				t.Error("expected conversion link click")
			}
		}
	}
	if !found {
		t.Fatal("expected link_click event in batch")
	}

	st, _ := s.SectionState("hero")
	if st.ClickCount != 1 {
		t.Errorf("expected click attributed to hero, got %d", st.ClickCount)
	}
}

func TestSessionRunSingleton(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		s.Run(ctx)
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the first Run claim the guard

	// Second Run must be a safe no-op, returning immediately.
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Run did not return immediately")
	}
	cancel()
	wg.Wait()
}

func TestSessionEngagementScoreBounded(t *testing.T) {
	s, clock, _, provider := newTestSession(t)

	for i := 0; i < 100; i++ {
		s.EnterSection("hero")
		provider.scrolls["hero"] = 100
		clock.Advance(time.Minute)
		s.Tick()
		s.Click()
		s.FormSubmitted("inquiry")
		s.EnterSection("fees")
		clock.Advance(time.Minute)
		s.Tick()
	}

	if score := s.EngagementScore(); score < 0 || score > 100 {
		t.Errorf("engagement score out of bounds: %d", score)
	}
	if prob := s.ConversionProbability(); prob < 0 || prob > 100 {
		t.Errorf("conversion probability out of bounds: %d", prob)
	}
}
