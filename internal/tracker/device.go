// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import "github.com/admitlens/admitlens/internal/models"

// EnvironmentProbe reads the static browser and device facts once per
// session. Implementations must be cheap and side-effect free; the
// snapshot is taken a single time at session creation.
type EnvironmentProbe interface {
	Snapshot() models.DeviceInfo
}

// StaticProbe is an EnvironmentProbe that returns a fixed snapshot.
// Hosts that already know their environment (and tests) use this.
type StaticProbe struct {
	Info models.DeviceInfo
}

// Snapshot implements EnvironmentProbe.
func (p StaticProbe) Snapshot() models.DeviceInfo { return p.Info }
