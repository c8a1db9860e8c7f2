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

// PlayerState is an embedded video player's lifecycle state.
type PlayerState int

// Player states, transitioning unstarted -> playing <-> paused -> ended.
const (
	PlayerUnstarted PlayerState = iota
	PlayerPlaying
	PlayerPaused
	PlayerEnded
)

// watchMilestones are the percent-of-duration marks reported exactly
// once per instrument.
var watchMilestones = [...]int{25, 50, 75, 90}

// VideoInstrument tracks one embedded player. Created when the player
// is discovered (possibly after initial page load), destroyed with the
// page.
type VideoInstrument struct {
	VideoID         string
	DurationSeconds float64 // 0 when unknown
	WatchedSeconds  float64
	PauseCount      int

	lastState     PlayerState
	playStartedAt time.Time // set on transition into playing
	milestones    map[int]bool
}

// VideoTracker manages the set of video instruments and attributes
// watch time to the section that is current when a play interval ends.
type VideoTracker struct {
	clock    Clock
	sections *SectionTracker
	emit     func(typ models.EventType, section string, payload any)

	instruments map[string]*VideoInstrument
}

// NewVideoTracker creates an empty tracker.
func NewVideoTracker(clock Clock, sections *SectionTracker, emit func(models.EventType, string, any)) *VideoTracker {
	return &VideoTracker{
		clock:       clock,
		sections:    sections,
		emit:        emit,
		instruments: make(map[string]*VideoInstrument),
	}
}

// Discover registers a player instrument. Idempotent: re-discovering an
// existing id refreshes the duration (players often report duration
// late) and returns the existing instrument. Hosts call this again
// after DOM mutations to pick up players added in modals.
func (v *VideoTracker) Discover(videoID string, durationSeconds float64) *VideoInstrument {
	if inst, ok := v.instruments[videoID]; ok {
		if durationSeconds > 0 {
			inst.DurationSeconds = durationSeconds
		}
		return inst
	}
	inst := &VideoInstrument{
		VideoID:         videoID,
		DurationSeconds: durationSeconds,
		lastState:       PlayerUnstarted,
		milestones:      make(map[int]bool),
	}
	v.instruments[videoID] = inst
	return inst
}

// Instrument returns the instrument for a video id, if discovered.
func (v *VideoTracker) Instrument(videoID string) (*VideoInstrument, bool) {
	inst, ok := v.instruments[videoID]
	return inst, ok
}

// HandleStateChange applies a player state transition. Transitions are
// serialized per instrument by the player API. Unknown video ids are
// ignored (instrument creation was skipped for that player).
func (v *VideoTracker) HandleStateChange(videoID string, state PlayerState) {
	inst, ok := v.instruments[videoID]
	if !ok || state == inst.lastState {
		return
	}
	now := v.clock.Now()

	// Close the open play interval before anything else.
	var delta float64
	if inst.lastState == PlayerPlaying && !inst.playStartedAt.IsZero() {
		delta = now.Sub(inst.playStartedAt).Seconds()
		inst.WatchedSeconds += delta
		inst.playStartedAt = time.Time{}
		v.sections.AttributeVideo(delta)
	}

	section := v.sections.CurrentSection()
	switch state {
	case PlayerPlaying:
		inst.playStartedAt = now
		v.emit(models.EventVideoPlay, section, models.VideoPlayPayload{VideoID: inst.VideoID})

	case PlayerPaused:
		inst.PauseCount++
		v.emit(models.EventVideoPause, section, models.VideoPausePayload{
			VideoID:         inst.VideoID,
			PauseCount:      inst.PauseCount,
			WatchedDeltaSec: round1(delta),
			WatchedSec:      round1(inst.WatchedSeconds),
		})

	case PlayerEnded:
		v.checkMilestones(inst, section)
		v.emit(models.EventVideoComplete, section, models.VideoCompletePayload{
			VideoID:         inst.VideoID,
			CompletionRate:  completionRate(inst),
			WatchedSec:      round1(inst.WatchedSeconds),
			WatchedDeltaSec: round1(delta),
		})

	case PlayerUnstarted:
		// Players do not transition back to unstarted; ignore.
	}
	inst.lastState = state
}

// PollProgress checks milestone crossings for playing instruments.
// Progress is polled, not event-driven from the player; call every few
// seconds while the page lives.
func (v *VideoTracker) PollProgress() {
	now := v.clock.Now()
	for _, inst := range v.instruments {
		if inst.lastState != PlayerPlaying {
			continue
		}
		v.checkMilestonesAt(inst, v.sections.CurrentSection(), now)
	}
}

func (v *VideoTracker) checkMilestones(inst *VideoInstrument, section string) {
	v.checkMilestonesAt(inst, section, v.clock.Now())
}

// checkMilestonesAt marks and emits each unreached milestone whose
// percentage the effective watch time has crossed, exactly once per
// milestone per instrument.
func (v *VideoTracker) checkMilestonesAt(inst *VideoInstrument, section string, now time.Time) {
	if inst.DurationSeconds <= 0 {
		return
	}
	watched := inst.WatchedSeconds
	if inst.lastState == PlayerPlaying && !inst.playStartedAt.IsZero() {
		watched += now.Sub(inst.playStartedAt).Seconds()
	}
	pct := watched / inst.DurationSeconds * 100
	for _, m := range watchMilestones {
		if pct >= float64(m) && !inst.milestones[m] {
			inst.milestones[m] = true
			v.emit(models.EventVideoMilestone, section, models.VideoMilestonePayload{
				VideoID:   inst.VideoID,
				Milestone: m,
			})
		}
	}
}

// completionRate is the watched percentage at ended, 0 when duration is
// unknown.
func completionRate(inst *VideoInstrument) int {
	if inst.DurationSeconds <= 0 {
		return 0
	}
	return int(math.Round(inst.WatchedSeconds / inst.DurationSeconds * 100))
}
