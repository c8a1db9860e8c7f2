// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/admitlens/admitlens/internal/logging"
)

// Config holds audit logger settings.
type Config struct {
	Enabled         bool
	RetentionDays   int
	CleanupInterval time.Duration
	BufferSize      int
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// Logger records audit events asynchronously. Log never blocks the
// request path: when the buffer is full the event is dropped with a
// warning rather than stalling a login or a track upload.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger and starts its writer goroutine.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain the buffer before exiting
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to save audit event")
	}
}

// Log records an audit event. Missing ID and Timestamp are filled in.
func (l *Logger) Log(event *Event) {
	if !l.config.Enabled {
		return
	}
	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("type", string(event.Type)).Msg("Audit event buffer full, dropping event")
	}
}

// Close drains pending events and stops the writer.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// StartCleanupRoutine deletes events beyond the retention window on a
// timer until ctx is canceled.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -l.config.RetentionDays)
				count, err := l.store.DeleteBefore(ctx, cutoff)
				if err != nil {
					logging.Error().Err(err).Msg("Audit cleanup error")
				} else if count > 0 {
					logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
				}
			}
		}
	}()
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Helpers for the events the API layer records.

// LogLoginSuccess records a successful dashboard login.
func (l *Logger) LogLoginSuccess(r *http.Request, username string) {
	l.Log(&Event{
		Type:        EventTypeLoginSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Username:    username,
		SourceIP:    clientIP(r),
		UserAgent:   r.UserAgent(),
		Description: "dashboard login succeeded",
	})
}

// LogLoginFailure records a failed dashboard login attempt.
func (l *Logger) LogLoginFailure(r *http.Request, username string) {
	l.Log(&Event{
		Type:        EventTypeLoginFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Username:    username,
		SourceIP:    clientIP(r),
		UserAgent:   r.UserAgent(),
		Description: "dashboard login failed",
	})
}

// LogBatchRejected records a tracking batch the server refused.
func (l *Logger) LogBatchRejected(r *http.Request, subjectID, reason string) {
	typ := EventTypeBatchRejected
	if reason == "oversized" {
		typ = EventTypeBatchOversized
	}
	l.Log(&Event{
		Type:        typ,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		SubjectID:   subjectID,
		SourceIP:    clientIP(r),
		UserAgent:   r.UserAgent(),
		Description: "tracking batch rejected: " + reason,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func generateEventID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}
