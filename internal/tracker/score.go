// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import "math"

// Engagement pattern labels that earn fixed score bonuses.
const (
	PatternFocused        = "focused"
	TrendIncreasing       = "increasing"
	QualityCarefulReading = "careful_reading"
)

// SectionScore is the per-section input to the scoring formulas.
type SectionScore struct {
	DwellSeconds     float64
	MaxScrollPercent int
	Clicks           int
	ReturnVisits     int
}

// ScoreInput is the accumulated session state the scoring formulas
// read. The formulas are pure and deterministic given this input.
type ScoreInput struct {
	Sections          []SectionScore
	NavigationPattern string // PatternFocused earns +10
	Trend             string // TrendIncreasing earns +15 (+10 on conversion probability)
	AttentionQuality  string // QualityCarefulReading earns +10 (+5 on conversion probability)
	ConversionSignals int
	TimeOnPageSec     float64
	SectionsEngaged   int
}

// PredictedEngagementScore computes the 0-100 engagement score.
//
// Per visited section (nonzero dwell):
//
//	min(dwell/60, 1)*20 + (maxScroll/100)*15 + min(clicks/3, 1)*10 + returnVisits*5
//
// summed, plus flat bonuses for focused navigation (+10), increasing
// trend (+15), and careful reading (+10); the running total is then
// multiplied by (1 + 0.1*conversionSignals) and clamped to [0, 100].
// These weights are contract: tests pin the exact bucket boundaries.
func PredictedEngagementScore(in ScoreInput) int {
	total := 0.0
	for _, s := range in.Sections {
		if s.DwellSeconds <= 0 {
			continue
		}
		total += math.Min(s.DwellSeconds/60, 1) * 20
		total += float64(clampInt(s.MaxScrollPercent, 0, 100)) / 100 * 15
		total += math.Min(float64(s.Clicks)/3, 1) * 10
		total += float64(s.ReturnVisits) * 5
	}
	if in.NavigationPattern == PatternFocused {
		total += 10
	}
	if in.Trend == TrendIncreasing {
		total += 15
	}
	if in.AttentionQuality == QualityCarefulReading {
		total += 10
	}
	total *= 1 + 0.1*float64(max(in.ConversionSignals, 0))
	return clampInt(int(math.Round(total)), 0, 100)
}

// ConversionProbability computes the 0-100 conversion probability as a
// bucketed additive score:
//
//   - engagement score tier: 10 / 20 / 30 / 40 at thresholds <40 / 40 / 60 / 80
//   - time on page: 10 / 20 / 30 at thresholds 60 / 180 / 300 seconds
//   - min(sectionsEngaged*5, 20)
//   - +10 per conversion signal
//   - +10 increasing trend, +5 careful reading
//
// clamped to [0, 100].
func ConversionProbability(in ScoreInput) int {
	engagement := PredictedEngagementScore(in)

	total := 0
	switch {
	case engagement >= 80:
		total += 40
	case engagement >= 60:
		total += 30
	case engagement >= 40:
		total += 20
	default:
		total += 10
	}

	switch {
	case in.TimeOnPageSec >= 300:
		total += 30
	case in.TimeOnPageSec >= 180:
		total += 20
	case in.TimeOnPageSec >= 60:
		total += 10
	}

	total += min(max(in.SectionsEngaged, 0)*5, 20)
	total += 10 * max(in.ConversionSignals, 0)

	if in.Trend == TrendIncreasing {
		total += 10
	}
	if in.AttentionQuality == QualityCarefulReading {
		total += 5
	}
	return clampInt(total, 0, 100)
}
