// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import "math"

// Lead score bounds. The minimum is 10, not 0: once a subject has any
// telemetry at all, a zero would be indistinguishable from no data, and
// "no data" is its own state (HasSignals=false).
const (
	MinLeadScore = 10
	MaxLeadScore = 100
)

// LeadScore computes the aggregate lead score for a subject:
//
//	round(dwellTotal/10) + round(avgScroll/2) + completes*8 + plays*3
//
// clamped to [MinLeadScore, MaxLeadScore]. The weighted-formula family
// matches the client-side engagement scorer so the two remain
// comparable in tests and dashboards.
func LeadScore(dwellTotalSec, avgScrollPct float64, completes, plays int) int {
	score := int(math.Round(dwellTotalSec/10)) +
		int(math.Round(avgScrollPct/2)) +
		completes*8 + plays*3

	if score < MinLeadScore {
		return MinLeadScore
	}
	if score > MaxLeadScore {
		return MaxLeadScore
	}
	return score
}
