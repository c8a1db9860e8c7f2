// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"testing"
	"time"
)

type attentionChange struct {
	attended bool
	reason   AttentionReason
}

func newTestMonitor(t *testing.T) (*AttentionMonitor, *ManualClock, *[]attentionChange) {
	t.Helper()
	clock := NewManualClock(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	var changes []attentionChange
	m := NewAttentionMonitor(clock, 25*time.Second, func(attended bool, reason AttentionReason) {
		changes = append(changes, attentionChange{attended, reason})
	})
	return m, clock, &changes
}

func TestAttentionStartsAttended(t *testing.T) {
	m, _, changes := newTestMonitor(t)
	if !m.IsAttended() {
		t.Error("expected new monitor to start attended")
	}
	if len(*changes) != 0 {
		t.Errorf("expected no change events at start, got %d", len(*changes))
	}
}

func TestAttentionTabHidden(t *testing.T) {
	m, _, changes := newTestMonitor(t)

	m.SetVisible(false)
	if m.IsAttended() {
		t.Error("expected unattended after tab hidden")
	}
	if len(*changes) != 1 || (*changes)[0].reason != ReasonTabHidden {
		t.Fatalf("expected one tab_hidden change, got %+v", *changes)
	}

	m.SetVisible(true)
	if !m.IsAttended() {
		t.Error("expected attended after tab shown")
	}
	if len(*changes) != 2 || !(*changes)[1].attended || (*changes)[1].reason != ReasonRecovered {
		t.Fatalf("expected recovered change, got %+v", *changes)
	}
}

func TestAttentionWindowUnfocused(t *testing.T) {
	m, _, changes := newTestMonitor(t)

	m.SetFocused(false)
	if m.IsAttended() {
		t.Error("expected unattended after focus lost")
	}
	if (*changes)[0].reason != ReasonWindowUnfocused {
		t.Errorf("expected window_unfocused, got %s", (*changes)[0].reason)
	}
}

func TestAttentionIdleTimeoutNeedsPoll(t *testing.T) {
	m, clock, changes := newTestMonitor(t)

	// Idle timeout is time-based: it fires on poll, without any input.
	clock.Advance(24 * time.Second)
	m.Poll()
	if !m.IsAttended() {
		t.Error("expected still attended just before idle timeout")
	}

	clock.Advance(2 * time.Second)
	m.Poll()
	if m.IsAttended() {
		t.Error("expected unattended after idle timeout")
	}
	if len(*changes) != 1 || (*changes)[0].reason != ReasonIdleTimeout {
		t.Fatalf("expected idle_timeout change, got %+v", *changes)
	}

	// Any user input recovers immediately, no poll needed.
	m.Activity()
	if !m.IsAttended() {
		t.Error("expected attended after activity")
	}
	if (*changes)[1].reason != ReasonRecovered {
		t.Errorf("expected recovered, got %s", (*changes)[1].reason)
	}
}

func TestAttentionEmitsOnComputedTransitionsOnly(t *testing.T) {
	m, _, changes := newTestMonitor(t)

	// Raw inputs change twice, computed value flips once.
	m.SetVisible(false)
	m.SetFocused(false)
	if len(*changes) != 1 {
		t.Fatalf("expected a single change for two raw input changes, got %d", len(*changes))
	}

	// Restoring focus alone does not recover: tab still hidden.
	m.SetFocused(true)
	if len(*changes) != 1 {
		t.Fatalf("expected no change while still hidden, got %+v", *changes)
	}
	m.SetVisible(true)
	if len(*changes) != 2 || !(*changes)[1].attended {
		t.Fatalf("expected recovery once both inputs restored, got %+v", *changes)
	}
}

func TestAttentionHiddenReasonWinsOverIdle(t *testing.T) {
	m, clock, changes := newTestMonitor(t)

	clock.Advance(30 * time.Second)
	m.SetVisible(false)
	// Both hidden and idle hold; the reported reason is tab_hidden.
	if (*changes)[0].reason != ReasonTabHidden {
		t.Errorf("expected tab_hidden to take precedence, got %s", (*changes)[0].reason)
	}
}
