// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package aggregate builds per-subject engagement snapshots from the
// persisted event stream: per-section dwell/scroll/video rollups with a
// contractual top-N ranking order, the weighted lead score, and the
// narrative (external summarizer when configured, deterministic
// template otherwise, canned text when no telemetry exists).
package aggregate
