// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"math"
	"time"

	"github.com/admitlens/admitlens/internal/models"
)

// VisibilityProvider feeds the section state machine with viewport
// intersection data. One implementation exists per host platform
// (IntersectionObserver, scroll polling, a scripted test provider);
// the state machine does not care which.
type VisibilityProvider interface {
	// VisibleRatio returns the fraction of the section currently
	// visible in the viewport, in [0, 1].
	VisibleRatio(sectionID string) float64

	// ScrollPercent returns how far through the section the viewport
	// has scrolled, in [0, 100].
	ScrollPercent(sectionID string) int
}

// Default section tracking parameters.
const (
	// DefaultVisibilityThreshold is the visible-fraction ratio a
	// section must cross to become the current-section candidate.
	DefaultVisibilityThreshold = 0.6

	// DefaultScrollMinDelta bounds section_scroll event volume: a new
	// event is emitted only when the percentage advances by at least
	// this many points since last reported.
	DefaultScrollMinDelta = 3

	// interactionQualityFullDwell is the dwell at which the
	// time-adequacy ramp of the quality score reaches full credit.
	interactionQualityFullDwell = 5.0
)

// SectionMeta describes a registered content region.
type SectionMeta struct {
	WordCount     int
	PositionIndex int
}

// SectionState accumulates per-section engagement for one session.
// DwellSeconds, MaxScrollPercent, ClickCount, VideoSeconds, VisitCount,
// and ReturnVisits are all monotonically non-decreasing. State is
// created lazily on first enter and never destroyed within a session.
type SectionState struct {
	SectionID        string
	DwellSeconds     float64
	MaxScrollPercent int
	ClickCount       int
	VideoSeconds     float64
	VisitCount       int
	ReturnVisits     int

	// enteredAt is set while this section is current, zero otherwise.
	enteredAt time.Time
	// lastTick is the last instant dwell was accumulated up to.
	lastTick time.Time
}

// SectionTracker owns the set of trackable content regions and the
// single current-section pointer. At most one section is current at any
// instant; enterSection(B) forces exitSection(A) first. Dwell time only
// accumulates while the AttentionMonitor reports the page attended.
type SectionTracker struct {
	clock     Clock
	attention *AttentionMonitor
	provider  VisibilityProvider
	emit      func(typ models.EventType, section string, payload any)

	threshold  float64
	scrollDelta int

	sections map[string]*SectionState
	meta     map[string]SectionMeta
	current  string

	lastReportedScroll map[string]int
}

// NewSectionTracker creates a tracker with no current section. emit may
// be nil (events discarded), which some tests use.
func NewSectionTracker(clock Clock, attention *AttentionMonitor, provider VisibilityProvider, threshold float64, scrollDelta int, emit func(models.EventType, string, any)) *SectionTracker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultVisibilityThreshold
	}
	if scrollDelta <= 0 {
		scrollDelta = DefaultScrollMinDelta
	}
	return &SectionTracker{
		clock:              clock,
		attention:          attention,
		provider:           provider,
		emit:               emit,
		threshold:          threshold,
		scrollDelta:        scrollDelta,
		sections:           make(map[string]*SectionState),
		meta:               make(map[string]SectionMeta),
		lastReportedScroll: make(map[string]int),
	}
}

// RegisterSection declares a trackable region. Section ids are unique
// within a page; re-registering updates the metadata only.
func (t *SectionTracker) RegisterSection(id string, meta SectionMeta) {
	t.meta[id] = meta
}

// CurrentSection returns the id of the current section, or "".
func (t *SectionTracker) CurrentSection() string { return t.current }

// State returns a copy of the accumulated state for a section, and
// whether any exists yet.
func (t *SectionTracker) State(id string) (SectionState, bool) {
	s, ok := t.sections[id]
	if !ok {
		return SectionState{}, false
	}
	return *s, true
}

// States returns copies of all section states.
func (t *SectionTracker) States() []SectionState {
	out := make([]SectionState, 0, len(t.sections))
	for _, s := range t.sections {
		out = append(out, *s)
	}
	return out
}

// EnterSection makes id the current section. A no-op when id is already
// current (no duplicate section_enter, no state mutation). When another
// section is current it is exited first; exit-before-enter ordering is
// mandatory.
func (t *SectionTracker) EnterSection(id string) {
	if id == t.current {
		return
	}
	previous := t.current
	if previous != "" {
		t.exitCurrent()
	}

	now := t.clock.Now()
	s, ok := t.sections[id]
	if !ok {
		s = &SectionState{SectionID: id}
		t.sections[id] = s
	}
	returnVisit := s.DwellSeconds > 0
	if returnVisit {
		s.ReturnVisits++
	}
	s.VisitCount++
	s.enteredAt = now
	s.lastTick = now
	t.current = id

	meta := t.meta[id]
	if t.emit != nil {
		t.emit(models.EventSectionEnter, id, models.SectionEnterPayload{
			PreviousSection: previous,
			WordCount:       meta.WordCount,
			PositionIndex:   meta.PositionIndex,
			ReturnVisit:     returnVisit,
		})
	}
}

// ExitSection exits the current section if one is open. Called on
// time-based exits, tab hide, and page unload; EnterSection calls it
// implicitly when transitioning.
func (t *SectionTracker) ExitSection() {
	if t.current != "" {
		t.exitCurrent()
	}
}

func (t *SectionTracker) exitCurrent() {
	s := t.sections[t.current]
	now := t.clock.Now()

	t.accumulate(s, now)
	t.updateScroll(s, false)

	visitSeconds := now.Sub(s.enteredAt).Seconds()
	payload := models.SectionExitPayload{
		TimeInSectionSec:   round1(visitSeconds),
		MaxScrollPct:       s.MaxScrollPercent,
		Clicks:             s.ClickCount,
		VideoWatchSec:      round1(s.VideoSeconds),
		ReturnVisits:       s.ReturnVisits,
		InteractionQuality: interactionQuality(s.ClickCount, s.MaxScrollPercent, visitSeconds),
	}
	id := t.current
	s.enteredAt = time.Time{}
	s.lastTick = time.Time{}
	t.current = ""

	if t.emit != nil {
		t.emit(models.EventSectionExit, id, payload)
	}
}

// Tick advances dwell and scroll for the current section without
// exiting it, so heartbeats reflect live state on long visits. Call
// every ~2 seconds.
func (t *SectionTracker) Tick() {
	if t.current == "" {
		return
	}
	s := t.sections[t.current]
	t.accumulate(s, t.clock.Now())
	t.updateScroll(s, true)
}

// EvaluateVisibility consults the VisibilityProvider and transitions
// the current section when a different section holds the highest
// visible ratio at or above the threshold. A ratio below threshold for
// every registered section exits the current one.
func (t *SectionTracker) EvaluateVisibility() {
	if t.provider == nil {
		return
	}
	best := ""
	bestRatio := 0.0
	for id := range t.meta {
		r := t.provider.VisibleRatio(id)
		if r >= t.threshold && r > bestRatio {
			best, bestRatio = id, r
		}
	}
	switch {
	case best == "":
		t.ExitSection()
	case best != t.current:
		t.EnterSection(best)
	}
}

// Click attributes a click to the current section. Clicking when no
// section is current is not attributed.
func (t *SectionTracker) Click() {
	if t.current == "" {
		return
	}
	t.sections[t.current].ClickCount++
}

// AttributeVideo adds watched seconds to the current section's video
// time. Watch time with no current section is not attributed; this is
// the accepted race of cross-instrument attribution.
func (t *SectionTracker) AttributeVideo(seconds float64) {
	if t.current == "" || seconds <= 0 {
		return
	}
	t.sections[t.current].VideoSeconds += seconds
}

// accumulate adds attended wall-clock time since the last tick to
// dwell. Unattended intervals advance lastTick without counting.
func (t *SectionTracker) accumulate(s *SectionState, now time.Time) {
	if s.lastTick.IsZero() {
		s.lastTick = now
		return
	}
	if t.attention.IsAttended() {
		s.DwellSeconds += now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
}

// updateScroll folds the provider's current scroll percentage into the
// monotonic max, optionally emitting a section_scroll event when it
// advanced enough since last reported.
func (t *SectionTracker) updateScroll(s *SectionState, mayEmit bool) {
	if t.provider == nil {
		return
	}
	pct := clampInt(t.provider.ScrollPercent(s.SectionID), 0, 100)
	if pct > s.MaxScrollPercent {
		s.MaxScrollPercent = pct
	}
	if !mayEmit || t.emit == nil {
		return
	}
	if s.MaxScrollPercent-t.lastReportedScroll[s.SectionID] >= t.scrollDelta {
		t.lastReportedScroll[s.SectionID] = s.MaxScrollPercent
		t.emit(models.EventSectionScroll, s.SectionID, models.SectionScrollPayload{ScrollPct: s.MaxScrollPercent})
	}
}

// interactionQuality scores a single section visit on [0, 100] from
// click rate (30%), scroll completeness (40%), and a time-adequacy ramp
// reaching full credit at 5 seconds of dwell (30%).
func interactionQuality(clicks, maxScrollPct int, visitSeconds float64) int {
	clickPart := math.Min(float64(clicks)/3.0, 1) * 30
	scrollPart := float64(clampInt(maxScrollPct, 0, 100)) / 100 * 40
	timePart := math.Min(math.Max(visitSeconds, 0)/interactionQualityFullDwell, 1) * 30
	return clampInt(int(math.Round(clickPart+scrollPart+timePart)), 0, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
