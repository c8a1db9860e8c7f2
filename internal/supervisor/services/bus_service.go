// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package services

import (
	"context"
)

// MessageRouter matches *bus.Router's Run method.
type MessageRouter interface {
	Run(ctx context.Context) error
}

// BusRouterService runs the watermill consumer router under
// supervision. A consumer panic bubbles up as a service failure and the
// supervisor restarts the router with fresh subscriptions.
type BusRouterService struct {
	router MessageRouter
	name   string
}

// NewBusRouterService creates the router service wrapper.
func NewBusRouterService(router MessageRouter) *BusRouterService {
	return &BusRouterService{router: router, name: "bus-router"}
}

// Serve implements suture.Service.
func (b *BusRouterService) Serve(ctx context.Context) error {
	return b.router.Run(ctx)
}

// String implements fmt.Stringer for suture's logging.
func (b *BusRouterService) String() string {
	return b.name
}
