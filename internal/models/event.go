// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EventType identifies the kind of telemetry event.
type EventType string

// Event types emitted by the tracker state machines.
const (
	EventAttentionChange EventType = "attention_state_change"
	EventSectionEnter    EventType = "section_enter"
	EventSectionExit     EventType = "section_exit"
	EventSectionScroll   EventType = "section_scroll"
	EventVideoPlay       EventType = "video_play"
	EventVideoPause      EventType = "video_pause"
	EventVideoMilestone  EventType = "video_milestone"
	EventVideoComplete   EventType = "video_complete"
	EventFormFieldFocus  EventType = "form_field_focus"
	EventFormSubmission  EventType = "form_submission"
	EventLinkClick       EventType = "link_click"
)

// SubjectUnknown is the subject id used when a session cannot be
// attributed to an inquiry. It is a valid, low-value subject.
const SubjectUnknown = "UNKNOWN"

// Event is an immutable telemetry record. Events are append-only: once
// created they are never mutated, and the server must tolerate duplicate
// delivery of the same event.
type Event struct {
	EventID        string          `json:"eventId"`
	SubjectID      string          `json:"subjectId"`
	SessionID      string          `json:"sessionId"`
	Type           EventType       `json:"eventType"`
	Timestamp      time.Time       `json:"timestamp"`
	CurrentSection string          `json:"currentSection,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh id and the given payload.
// A nil payload is allowed for payload-free events.
func NewEvent(subjectID, sessionID string, typ EventType, ts time.Time, section string, payload any) (Event, error) {
	e := Event{
		EventID:        uuid.New().String(),
		SubjectID:      subjectID,
		SessionID:      sessionID,
		Type:           typ,
		Timestamp:      ts.UTC(),
		CurrentSection: section,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		e.Data = data
	}
	return e, nil
}

// Validate checks the fields the ingestion contract requires.
func (e *Event) Validate() error {
	if e.SubjectID == "" {
		return fmt.Errorf("event %s: missing subjectId", e.EventID)
	}
	if e.SessionID == "" {
		return fmt.Errorf("event %s: missing sessionId", e.EventID)
	}
	if e.Type == "" {
		return fmt.Errorf("event %s: missing eventType", e.EventID)
	}
	return nil
}

// HighPriority reports whether the event travels in the high-priority
// lane of the event buffer. High-priority events are retried once on
// delivery failure; normal events may be dropped under queue pressure.
func (e *Event) HighPriority() bool {
	switch e.Type {
	case EventVideoPlay, EventVideoMilestone, EventVideoComplete,
		EventFormFieldFocus, EventFormSubmission:
		return true
	case EventLinkClick:
		var p LinkClickPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return false
		}
		return p.Conversion
	default:
		return false
	}
}

// ConversionSignal reports whether the event indicates contact or
// enrollment intent. Conversion signals boost the engagement score and
// shorten the heartbeat interval.
func (e *Event) ConversionSignal() bool {
	switch e.Type {
	case EventFormFieldFocus, EventFormSubmission, EventVideoComplete:
		return true
	case EventLinkClick:
		var p LinkClickPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return false
		}
		return p.Conversion
	default:
		return false
	}
}

// AttentionChangePayload accompanies attention_state_change events.
type AttentionChangePayload struct {
	Attended bool   `json:"attended"`
	Reason   string `json:"reason"` // tab_hidden, window_unfocused, idle_timeout, recovered
}

// SectionEnterPayload accompanies section_enter events.
type SectionEnterPayload struct {
	PreviousSection string `json:"previousSection,omitempty"`
	WordCount       int    `json:"wordCount"`
	PositionIndex   int    `json:"positionIndex"`
	ReturnVisit     bool   `json:"returnVisit"`
}

// SectionExitPayload accompanies section_exit events.
//
// TimeInSectionSec is the duration of this visit only (a summable
// delta); MaxScrollPct, Clicks, VideoWatchSec, and ReturnVisits are
// session-cumulative totals for the section, merged server-side with
// max semantics.
type SectionExitPayload struct {
	TimeInSectionSec   float64 `json:"timeInSectionSec"`
	MaxScrollPct       int     `json:"maxScrollPct"`
	Clicks             int     `json:"clicks"`
	VideoWatchSec      float64 `json:"videoWatchSec"`
	ReturnVisits       int     `json:"returnVisits"`
	InteractionQuality int     `json:"interactionQuality"`
}

// SectionScrollPayload accompanies section_scroll events.
type SectionScrollPayload struct {
	ScrollPct int `json:"scrollPct"`
}

// VideoPlayPayload accompanies video_play events.
type VideoPlayPayload struct {
	VideoID string `json:"videoId"`
}

// VideoPausePayload accompanies video_pause events. WatchedDeltaSec is
// the watch time accumulated since the previous play transition.
type VideoPausePayload struct {
	VideoID         string  `json:"videoId"`
	PauseCount      int     `json:"pauseCount"`
	WatchedDeltaSec float64 `json:"watchedDeltaSec"`
	WatchedSec      float64 `json:"watchedSec"`
}

// VideoMilestonePayload accompanies video_milestone events. Milestone
// is one of 25, 50, 75, 90.
type VideoMilestonePayload struct {
	VideoID   string `json:"videoId"`
	Milestone int    `json:"milestone"`
}

// VideoCompletePayload accompanies video_complete events.
type VideoCompletePayload struct {
	VideoID         string  `json:"videoId"`
	CompletionRate  int     `json:"completionRate"` // 0 when duration unknown
	WatchedSec      float64 `json:"watchedSec"`
	WatchedDeltaSec float64 `json:"watchedDeltaSec"`
}

// FormFieldFocusPayload accompanies form_field_focus events.
type FormFieldFocusPayload struct {
	Field string `json:"field"`
}

// FormSubmissionPayload accompanies form_submission events.
type FormSubmissionPayload struct {
	FormID string `json:"formId"`
}

// LinkClickPayload accompanies link_click events. Conversion is true
// when the link text or target matches a conversion keyword (apply,
// visit, enroll, contact).
type LinkClickPayload struct {
	Href       string `json:"href"`
	Text       string `json:"text,omitempty"`
	Conversion bool   `json:"conversion"`
}

// ErrUnknownEventType marks an event type outside the set this server
// scores. Callers may treat it as zero-contribution rather than invalid.
var ErrUnknownEventType = errors.New("unknown event type")

// DecodePayload decodes an event's raw payload into its typed form.
// Unknown types return ErrUnknownEventType rather than a silently
// empty payload.
func DecodePayload(e *Event) (any, error) {
	decode := func(v any) (any, error) {
		if len(e.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(e.Data, v); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return v, nil
	}

	switch e.Type {
	case EventAttentionChange:
		return decode(&AttentionChangePayload{})
	case EventSectionEnter:
		return decode(&SectionEnterPayload{})
	case EventSectionExit:
		return decode(&SectionExitPayload{})
	case EventSectionScroll:
		return decode(&SectionScrollPayload{})
	case EventVideoPlay:
		return decode(&VideoPlayPayload{})
	case EventVideoPause:
		return decode(&VideoPausePayload{})
	case EventVideoMilestone:
		return decode(&VideoMilestonePayload{})
	case EventVideoComplete:
		return decode(&VideoCompletePayload{})
	case EventFormFieldFocus:
		return decode(&FormFieldFocusPayload{})
	case EventFormSubmission:
		return decode(&FormSubmissionPayload{})
	case EventLinkClick:
		return decode(&LinkClickPayload{})
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEventType, e.Type)
	}
}
