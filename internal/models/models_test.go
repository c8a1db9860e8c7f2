// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNewEventWireShape(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	e, err := NewEvent("subj-1", "sess-1", EventSectionScroll, ts, "hero", SectionScrollPayload{ScrollPct: 45})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if e.EventID == "" {
		t.Error("expected generated event id")
	}

	data, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"subjectId":"subj-1"`, `"sessionId":"sess-1"`, `"eventType":"section_scroll"`, `"currentSection":"hero"`, `"scrollPct":45`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("wire format missing %s in %s", field, data)
		}
	}
	if !strings.Contains(string(data), "2026-03-14T09:26:53Z") {
		t.Errorf("expected ISO8601 timestamp, got %s", data)
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		valid bool
	}{
		{"complete", Event{SubjectID: "s", SessionID: "x", Type: EventSectionEnter}, true},
		{"missing subject", Event{SessionID: "x", Type: EventSectionEnter}, false},
		{"missing session", Event{SubjectID: "s", Type: EventSectionEnter}, false},
		{"missing type", Event{SubjectID: "s", SessionID: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestHighPriorityClassification(t *testing.T) {
	ts := time.Now()
	mkEvent := func(typ EventType, payload any) Event {
		e, err := NewEvent("s", "x", typ, ts, "", payload)
		if err != nil {
			t.Fatalf("NewEvent(%s): %v", typ, err)
		}
		return e
	}

	tests := []struct {
		event Event
		want  bool
	}{
		{mkEvent(EventSectionEnter, SectionEnterPayload{}), false},
		{mkEvent(EventSectionExit, SectionExitPayload{}), false},
		{mkEvent(EventSectionScroll, SectionScrollPayload{}), false},
		{mkEvent(EventAttentionChange, AttentionChangePayload{}), false},
		{mkEvent(EventVideoPause, VideoPausePayload{}), false},
		{mkEvent(EventVideoPlay, VideoPlayPayload{VideoID: "v"}), true},
		{mkEvent(EventVideoMilestone, VideoMilestonePayload{Milestone: 25}), true},
		{mkEvent(EventVideoComplete, VideoCompletePayload{}), true},
		{mkEvent(EventFormFieldFocus, FormFieldFocusPayload{Field: "email"}), true},
		{mkEvent(EventFormSubmission, FormSubmissionPayload{}), true},
		{mkEvent(EventLinkClick, LinkClickPayload{Href: "/apply", Conversion: true}), true},
		{mkEvent(EventLinkClick, LinkClickPayload{Href: "/news", Conversion: false}), false},
	}
	for _, tt := range tests {
		if got := tt.event.HighPriority(); got != tt.want {
			t.Errorf("HighPriority(%s) = %v, want %v", tt.event.Type, got, tt.want)
		}
	}
}

func TestConversionSignalClassification(t *testing.T) {
	ts := time.Now()
	mkEvent := func(typ EventType, payload any) Event {
		e, err := NewEvent("s", "x", typ, ts, "", payload)
		if err != nil {
			t.Fatalf("NewEvent(%s): %v", typ, err)
		}
		return e
	}

	// video_play travels high-priority but is not by itself a conversion signal
	if e := mkEvent(EventVideoPlay, VideoPlayPayload{}); e.ConversionSignal() {
		t.Error("video_play should not count as a conversion signal")
	}
	if e := mkEvent(EventVideoComplete, VideoCompletePayload{}); !e.ConversionSignal() {
		t.Error("video_complete should count as a conversion signal")
	}
	if e := mkEvent(EventFormSubmission, FormSubmissionPayload{}); !e.ConversionSignal() {
		t.Error("form_submission should count as a conversion signal")
	}
	if e := mkEvent(EventLinkClick, LinkClickPayload{Conversion: false}); e.ConversionSignal() {
		t.Error("non-conversion link click should not count")
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	ts := time.Now()
	e, err := NewEvent("s", "x", EventSectionExit, ts, "hero", SectionExitPayload{
		TimeInSectionSec:   12,
		MaxScrollPct:       80,
		Clicks:             2,
		VideoWatchSec:      5.5,
		ReturnVisits:       1,
		InteractionQuality: 74,
	})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	decoded, err := DecodePayload(&e)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	p, ok := decoded.(*SectionExitPayload)
	if !ok {
		t.Fatalf("expected *SectionExitPayload, got %T", decoded)
	}
	if p.TimeInSectionSec != 12 || p.MaxScrollPct != 80 || p.InteractionQuality != 74 {
		t.Errorf("payload fields lost in round trip: %+v", p)
	}
}

func TestDecodePayloadUnknownType(t *testing.T) {
	e := Event{Type: "made_up", SubjectID: "s", SessionID: "x"}
	_, err := DecodePayload(&e)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("err = %v, want ErrUnknownEventType", err)
	}
}
