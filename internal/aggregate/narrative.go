// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import (
	"fmt"
	"strings"

	"github.com/admitlens/admitlens/internal/models"
)

// Narrative sources reported to metrics
const (
	narrativeSourceSummarizer = "summarizer"
	narrativeSourceTemplate   = "template"
	narrativeSourceCanned     = "canned"
)

// CannedNarrative is the fixed text returned when a subject has no
// usable telemetry, or when only coarse degraded data is available.
// Its exact wording is relied on by dashboard snapshot tests.
const CannedNarrative = "Limited tracking available for this inquiry. " +
	"The prospectus may not have been opened yet, or the visitor's " +
	"browser restricts engagement telemetry."

// templateNarrative produces the deterministic fallback narrative for a
// subject with signals. Same inputs, same text: the dashboard must not
// flicker between phrasings on refresh.
func templateNarrative(snap *models.EngagementSnapshot) (string, []string) {
	var sb strings.Builder
	var highlights []string

	totalMin := float64(snap.Totals.TimeOnPageMs) / 60000

	switch {
	case snap.LeadScore >= 70:
		sb.WriteString("Highly engaged prospect. ")
	case snap.LeadScore >= 40:
		sb.WriteString("Moderately engaged prospect. ")
	default:
		sb.WriteString("Early-stage interest. ")
	}

	if totalMin >= 1 {
		fmt.Fprintf(&sb, "Spent %.0f minute(s) reading the prospectus", totalMin)
	} else {
		sb.WriteString("Briefly opened the prospectus")
	}
	if snap.Totals.TotalVisits > 1 {
		fmt.Fprintf(&sb, " across %d visits", snap.Totals.TotalVisits)
	}
	sb.WriteString(".")

	if len(snap.Sections) > 0 {
		top := snap.Sections[0]
		fmt.Fprintf(&sb, " Most attention went to %q (%.0fs).", top.SectionID, top.DwellSeconds)
		highlights = append(highlights,
			fmt.Sprintf("Top section: %s (%.0fs dwell)", top.SectionID, top.DwellSeconds))
	}
	if snap.Totals.VideoMs > 0 {
		videoSec := float64(snap.Totals.VideoMs) / 1000
		fmt.Fprintf(&sb, " Watched %.0fs of video.", videoSec)
		highlights = append(highlights, fmt.Sprintf("Video watch time: %.0fs", videoSec))
	}
	if snap.Totals.ScrollDepth >= 80 {
		highlights = append(highlights,
			fmt.Sprintf("Read %d%% of the page", snap.Totals.ScrollDepth))
	}
	if snap.Totals.Clicks > 0 {
		highlights = append(highlights, fmt.Sprintf("%d link click(s)", snap.Totals.Clicks))
	}

	return sb.String(), highlights
}
