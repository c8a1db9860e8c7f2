// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package tracker implements the visitor-side behavioral telemetry
// pipeline: attention monitoring, section dwell tracking, video
// engagement tracking, event buffering with best-effort delivery, and
// the engagement scoring formulas.
//
// The pipeline is host-agnostic. Everything the browser would supply is
// injected as a capability interface: a Clock for time, a
// VisibilityProvider for section/viewport intersection, an
// EnvironmentProbe for device facts, and a BestEffortTransport for
// delivery. A Session ties the instruments together and owns the only
// lock; all state machines assume serialized invocation, mirroring the
// single-threaded browser event loop they model.
package tracker
