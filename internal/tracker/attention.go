// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import "time"

// AttentionReason explains an attention state transition.
type AttentionReason string

// Reasons carried on attention_state_change events.
const (
	ReasonTabHidden       AttentionReason = "tab_hidden"
	ReasonWindowUnfocused AttentionReason = "window_unfocused"
	ReasonIdleTimeout     AttentionReason = "idle_timeout"
	ReasonRecovered       AttentionReason = "recovered"
)

// DefaultIdleTimeout is how long without user input before a visible,
// focused page stops counting as attended.
const DefaultIdleTimeout = 25 * time.Second

// AttentionMonitor derives a single attended/unattended state from
// three independent inputs: page visibility, window focus, and recency
// of user input. Attended = visible AND focused AND not idle.
//
// The monitor emits onChange only when the computed attended value
// flips, not on every raw input change. Poll must be called on a fixed
// interval (1s) because the idle timeout fires on elapsed time alone,
// with no triggering input.
type AttentionMonitor struct {
	clock       Clock
	idleTimeout time.Duration
	onChange    func(attended bool, reason AttentionReason)

	visible      bool
	focused      bool
	lastActivity time.Time
	attended     bool
}

// NewAttentionMonitor creates a monitor that starts attended: visible,
// focused, with activity stamped now. onChange may be nil.
func NewAttentionMonitor(clock Clock, idleTimeout time.Duration, onChange func(bool, AttentionReason)) *AttentionMonitor {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &AttentionMonitor{
		clock:        clock,
		idleTimeout:  idleTimeout,
		onChange:     onChange,
		visible:      true,
		focused:      true,
		lastActivity: clock.Now(),
		attended:     true,
	}
}

// IsAttended reports the current computed attention state.
func (m *AttentionMonitor) IsAttended() bool { return m.attended }

// SetVisible records a page visibility change (tab shown or hidden).
func (m *AttentionMonitor) SetVisible(visible bool) {
	m.visible = visible
	if visible {
		// Coming back to the tab is user activity.
		m.lastActivity = m.clock.Now()
	}
	m.reevaluate()
}

// SetFocused records a window focus change.
func (m *AttentionMonitor) SetFocused(focused bool) {
	m.focused = focused
	if focused {
		m.lastActivity = m.clock.Now()
	}
	m.reevaluate()
}

// Activity records user input (pointer move, key press, wheel, touch,
// scroll, click) and re-evaluates immediately so an idle page recovers
// without waiting for the next poll.
func (m *AttentionMonitor) Activity() {
	m.lastActivity = m.clock.Now()
	m.reevaluate()
}

// Poll re-evaluates the attention state. Call once per second; the idle
// timeout is purely time-based and needs no input to fire.
func (m *AttentionMonitor) Poll() {
	m.reevaluate()
}

func (m *AttentionMonitor) idle() bool {
	return m.clock.Now().Sub(m.lastActivity) >= m.idleTimeout
}

// reevaluate recomputes attended and emits on transitions of the
// computed value only.
func (m *AttentionMonitor) reevaluate() {
	attended := m.visible && m.focused && !m.idle()
	if attended == m.attended {
		return
	}
	m.attended = attended

	reason := ReasonRecovered
	if !attended {
		switch {
		case !m.visible:
			reason = ReasonTabHidden
		case !m.focused:
			reason = ReasonWindowUnfocused
		default:
			reason = ReasonIdleTimeout
		}
	}
	if m.onChange != nil {
		m.onChange(attended, reason)
	}
}
