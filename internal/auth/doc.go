// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package auth secures the dashboard read side: bcrypt verification of
// the configured admin credentials, HMAC-signed JWT session tokens, and
// the Authenticate middleware that guards the engagement endpoints.
package auth

import "errors"

var (
	errInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")
	errMissingToken      = errors.New("authentication required")
)
