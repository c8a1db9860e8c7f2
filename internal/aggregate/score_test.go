// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import "testing"

func TestLeadScore(t *testing.T) {
	tests := []struct {
		name      string
		dwellSec  float64
		avgScroll float64
		completes int
		plays     int
		want      int
	}{
		{"zero inputs clamp to minimum", 0, 0, 0, 0, 10},
		{"tiny dwell clamps to minimum", 30, 10, 0, 0, 10},
		{"typical engaged reader", 120, 60, 1, 2, 56},
		{"dwell only", 250, 0, 0, 0, 25},
		{"video heavy", 100, 40, 3, 4, 66},
		{"saturates at maximum", 2000, 100, 10, 10, 100},
		{"rounding at boundaries", 15, 3, 0, 0, 10}, // 2 + 2 = 4, clamped
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LeadScore(tt.dwellSec, tt.avgScroll, tt.completes, tt.plays)
			if got != tt.want {
				t.Errorf("LeadScore(%v, %v, %d, %d) = %d, want %d",
					tt.dwellSec, tt.avgScroll, tt.completes, tt.plays, got, tt.want)
			}
		})
	}
}

func TestLeadScoreMatchesFormula(t *testing.T) {
	// 95/10 rounds to 10, 45/2 rounds to 23 (banker's rounding is not
	// used; math.Round rounds half away from zero)
	if got := LeadScore(95, 45, 0, 0); got != 33 {
		t.Errorf("LeadScore(95, 45, 0, 0) = %d, want 33", got)
	}
}
