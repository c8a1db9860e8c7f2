// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/models"
)

// Config holds the tracker session tuning knobs.
type Config struct {
	IdleTimeout           time.Duration
	AttentionPollInterval time.Duration
	SectionTickInterval   time.Duration
	HeartbeatInterval     time.Duration
	VisibilityThreshold   float64
	ScrollMinDelta        int
	MaxNormalQueue        int
}

// DefaultConfig returns the default session tuning.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:           DefaultIdleTimeout,
		AttentionPollInterval: time.Second,
		SectionTickInterval:   2 * time.Second,
		HeartbeatInterval:     12 * time.Second,
		VisibilityThreshold:   DefaultVisibilityThreshold,
		ScrollMinDelta:        DefaultScrollMinDelta,
		MaxNormalQueue:        DefaultMaxNormalQueue,
	}
}

// Deps are the host capabilities a Session needs.
type Deps struct {
	Clock      Clock
	Transport  BestEffortTransport
	Visibility VisibilityProvider
	Probe      EnvironmentProbe
}

// conversionKeywords mark a clicked link as a conversion signal when
// found in its target or text.
var conversionKeywords = []string{"apply", "enroll", "admission", "visit", "contact", "register"}

// Session is one visitor's tracking session: it owns the instruments,
// the event buffer, and the single mutex that serializes them. One
// Session is created per page load and passed to every sub-component;
// there is no package-level tracker state, so independent sessions can
// coexist in-process.
type Session struct {
	mu sync.Mutex

	cfg       Config
	clock     Clock
	subjectID string
	sessionID string
	device    models.DeviceInfo
	startedAt time.Time

	attention  *AttentionMonitor
	sections   *SectionTracker
	video      *VideoTracker
	buffer     *EventBuffer
	dispatcher *Dispatcher

	conversionSignals int
	exitQualities     []int

	running bool
}

// NewSession wires a tracking session for one subject. An empty
// sessionID gets a generated one. An empty subject id is recorded as
// SubjectUnknown, which is valid but low-value.
func NewSession(subjectID, sessionID string, cfg Config, deps Deps) *Session {
	if subjectID == "" {
		subjectID = models.SubjectUnknown
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}

	s := &Session{
		cfg:       cfg,
		clock:     deps.Clock,
		subjectID: subjectID,
		sessionID: sessionID,
		startedAt: deps.Clock.Now(),
	}
	if deps.Probe != nil {
		s.device = deps.Probe.Snapshot()
	}

	s.attention = NewAttentionMonitor(deps.Clock, cfg.IdleTimeout, func(attended bool, reason AttentionReason) {
		s.emit(models.EventAttentionChange, s.sections.CurrentSection(), models.AttentionChangePayload{
			Attended: attended,
			Reason:   string(reason),
		})
	})
	s.sections = NewSectionTracker(deps.Clock, s.attention, deps.Visibility, cfg.VisibilityThreshold, cfg.ScrollMinDelta, s.emit)
	s.video = NewVideoTracker(deps.Clock, s.sections, s.emit)
	s.buffer = NewEventBuffer(cfg.MaxNormalQueue)
	s.dispatcher = NewDispatcher(s.buffer, deps.Transport, s.sessionInfo)
	return s
}

// SessionID returns the session identifier.
func (s *Session) SessionID() string { return s.sessionID }

// emit builds and enqueues an event. It runs under the session lock
// (all public entry points hold it before touching the instruments).
func (s *Session) emit(typ models.EventType, section string, payload any) {
	e, err := models.NewEvent(s.subjectID, s.sessionID, typ, s.clock.Now(), section, payload)
	if err != nil {
		logging.Err(err).Str("event_type", string(typ)).Msg("dropping unencodable event")
		return
	}
	if e.ConversionSignal() {
		s.conversionSignals++
	}
	if p, ok := payload.(models.SectionExitPayload); ok {
		s.exitQualities = append(s.exitQualities, p.InteractionQuality)
	}
	s.buffer.Enqueue(e)
}

// sessionInfo builds the rolled-up summary attached to every batch.
// All counters are session-cumulative running totals.
func (s *Session) sessionInfo() *models.SessionInfo {
	info := &models.SessionInfo{
		SubjectID:     s.subjectID,
		SessionID:     s.sessionID,
		TimeOnPageSec: s.clock.Now().Sub(s.startedAt).Seconds(),
		DeviceInfo:    s.device,
	}
	for _, st := range s.sections.States() {
		if st.MaxScrollPercent > info.MaxScrollDepth {
			info.MaxScrollDepth = st.MaxScrollPercent
		}
		info.ClickCount += st.ClickCount
		if st.VisitCount > 0 {
			info.SectionViews++
		}
	}
	return info
}

// RegisterSection declares a trackable content region.
func (s *Session) RegisterSection(id string, meta SectionMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections.RegisterSection(id, meta)
}

// EnterSection forces a section transition (tests and hosts without a
// visibility provider).
func (s *Session) EnterSection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections.EnterSection(id)
}

// EvaluateVisibility lets the visibility provider drive the current
// section.
func (s *Session) EvaluateVisibility() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections.EvaluateVisibility()
}

// Tick advances dwell and scroll for the current section and checks
// video milestone progress. Driven every SectionTickInterval by Run.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections.Tick()
	s.video.PollProgress()
}

// PollAttention re-evaluates the idle timeout. Driven every
// AttentionPollInterval by Run.
func (s *Session) PollAttention() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Poll()
}

// Activity records user input.
func (s *Session) Activity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Activity()
}

// Click records a click attributed to the current section.
func (s *Session) Click() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Activity()
	s.sections.Click()
}

// LinkClicked records a content-link click. Links whose target or text
// match a conversion keyword become high-priority conversion signals.
func (s *Session) LinkClicked(href, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Activity()
	s.sections.Click()
	s.emit(models.EventLinkClick, s.sections.CurrentSection(), models.LinkClickPayload{
		Href:       href,
		Text:       text,
		Conversion: isConversionLink(href, text),
	})
}

// FormFieldFocused records focus entering an inquiry form field.
func (s *Session) FormFieldFocused(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Activity()
	s.emit(models.EventFormFieldFocus, s.sections.CurrentSection(), models.FormFieldFocusPayload{Field: field})
}

// FormSubmitted records an inquiry form submission.
func (s *Session) FormSubmitted(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.Activity()
	s.emit(models.EventFormSubmission, s.sections.CurrentSection(), models.FormSubmissionPayload{FormID: formID})
}

// DiscoverVideo registers an embedded player instrument. Safe to call
// again after DOM mutations.
func (s *Session) DiscoverVideo(videoID string, durationSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video.Discover(videoID, durationSeconds)
}

// VideoStateChanged applies a player state transition.
func (s *Session) VideoStateChanged(videoID string, state PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video.HandleStateChange(videoID, state)
}

// PageHidden handles the tab being hidden: the current section is
// force-exited and the buffer flushed synchronously.
func (s *Session) PageHidden() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.SetVisible(false)
	s.sections.ExitSection()
	if err := s.dispatcher.Flush(FlushPageHidden); err != nil {
		logging.Err(err).Msg("page-hidden flush failed")
	}
}

// PageVisible handles the tab being shown again.
func (s *Session) PageVisible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.SetVisible(true)
}

// WindowFocused handles window focus changes.
func (s *Session) WindowFocused(focused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attention.SetFocused(focused)
}

// Heartbeat performs a timer-driven flush.
func (s *Session) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dispatcher.Flush(FlushHeartbeat); err != nil {
		logging.Err(err).Msg("heartbeat flush failed")
	}
}

// Flush performs an explicit caller-requested flush.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.Flush(FlushManual)
}

// Unload handles page teardown: exit the open section and attempt one
// final best-effort delivery. Nothing after this is guaranteed to run.
func (s *Session) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections.ExitSection()
	if err := s.dispatcher.Flush(FlushUnload); err != nil {
		logging.Err(err).Msg("unload flush failed")
	}
}

// SectionState returns a copy of one section's accumulated state.
func (s *Session) SectionState(id string) (SectionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sections.State(id)
}

// IsAttended reports the current attention state.
func (s *Session) IsAttended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attention.IsAttended()
}

// PendingEvents returns the number of buffered, unflushed events.
func (s *Session) PendingEvents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Len()
}

// EngagementScore computes the current predicted engagement score.
func (s *Session) EngagementScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PredictedEngagementScore(s.scoreInput())
}

// ConversionProbability computes the current conversion probability.
func (s *Session) ConversionProbability() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ConversionProbability(s.scoreInput())
}

// scoreInput folds instrument state into the scoring input, deriving
// the pattern labels:
//
//   - focused: at most three sections engaged over at least 30 seconds
//   - increasing: the latest section-exit quality beats the first
//   - careful_reading: >=20s average dwell and >=60 average scroll
//     across engaged sections
//
// Callers hold the session lock.
func (s *Session) scoreInput() ScoreInput {
	states := s.sections.States()
	in := ScoreInput{
		ConversionSignals: s.conversionSignals,
		TimeOnPageSec:     s.clock.Now().Sub(s.startedAt).Seconds(),
	}

	var dwellSum float64
	var scrollSum int
	for _, st := range states {
		if st.VisitCount == 0 {
			continue
		}
		in.Sections = append(in.Sections, SectionScore{
			DwellSeconds:     st.DwellSeconds,
			MaxScrollPercent: st.MaxScrollPercent,
			Clicks:           st.ClickCount,
			ReturnVisits:     st.ReturnVisits,
		})
		in.SectionsEngaged++
		dwellSum += st.DwellSeconds
		scrollSum += st.MaxScrollPercent
	}

	if in.SectionsEngaged > 0 && in.SectionsEngaged <= 3 && in.TimeOnPageSec >= 30 {
		in.NavigationPattern = PatternFocused
	}
	if n := len(s.exitQualities); n >= 2 && s.exitQualities[n-1] > s.exitQualities[0] {
		in.Trend = TrendIncreasing
	}
	if in.SectionsEngaged > 0 {
		avgDwell := dwellSum / float64(in.SectionsEngaged)
		avgScroll := scrollSum / in.SectionsEngaged
		if avgDwell >= 20 && avgScroll >= 60 {
			in.AttentionQuality = QualityCarefulReading
		}
	}
	return in
}

// Run drives the session timers until the context is canceled: the
// attention poll, the section/video tick, and the adaptive heartbeat.
// The heartbeat halves its period while conversion probability is high
// and converges back to base when the condition clears; the timer is
// stopped before being replaced so two heartbeats never overlap.
//
// Run is a singleton per session: a second concurrent call is a safe
// no-op, so double-installing the tracker cannot double timers.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	attentionTicker := time.NewTicker(s.cfg.AttentionPollInterval)
	defer attentionTicker.Stop()
	sectionTicker := time.NewTicker(s.cfg.SectionTickInterval)
	defer sectionTicker.Stop()

	heartbeat := time.NewTimer(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Unload()
			return
		case <-attentionTicker.C:
			s.PollAttention()
		case <-sectionTicker.C:
			s.Tick()
			s.EvaluateVisibility()
		case <-heartbeat.C:
			s.Heartbeat()
			heartbeat.Reset(HeartbeatInterval(s.cfg.HeartbeatInterval, s.ConversionProbability()))
		}
	}
}

func isConversionLink(href, text string) bool {
	target := strings.ToLower(href + " " + text)
	for _, kw := range conversionKeywords {
		if strings.Contains(target, kw) {
			return true
		}
	}
	return false
}
