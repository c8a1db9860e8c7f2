// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package services

import (
	"context"
	"time"

	"github.com/admitlens/admitlens/internal/models"
)

// StatsSource provides the counts for the periodic dashboard stats
// broadcast. Satisfied by *ingest.MetricsStore.
type StatsSource interface {
	Subjects() ([]models.SubjectActivity, error)
	SessionCount() (int, error)
}

// StatsBroadcaster matches *websocket.Hub's stats broadcast method.
type StatsBroadcaster interface {
	BroadcastStatsUpdate(totalSubjects, activeSessions int)
}

// StatsBroadcastService periodically pushes subject and session counts
// to connected dashboard clients. Read errors skip the tick; the next
// tick retries.
type StatsBroadcastService struct {
	source   StatsSource
	hub      StatsBroadcaster
	interval time.Duration
	name     string
}

// NewStatsBroadcastService creates the broadcaster. Interval defaults
// to 30 seconds.
func NewStatsBroadcastService(source StatsSource, hub StatsBroadcaster, interval time.Duration) *StatsBroadcastService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatsBroadcastService{
		source:   source,
		hub:      hub,
		interval: interval,
		name:     "stats-broadcaster",
	}
}

// Serve implements suture.Service.
func (s *StatsBroadcastService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *StatsBroadcastService) broadcast() {
	subjects, err := s.source.Subjects()
	if err != nil {
		return
	}
	sessions, err := s.source.SessionCount()
	if err != nil {
		return
	}
	s.hub.BroadcastStatsUpdate(len(subjects), sessions)
}

// String implements fmt.Stringer for suture's logging.
func (s *StatsBroadcastService) String() string {
	return s.name
}
