// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package bus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// BatchIngestedEvent announces one accepted tracking batch.
type BatchIngestedEvent struct {
	SubjectID         string    `json:"subjectId"`
	SessionID         string    `json:"sessionId"`
	EventsProcessed   int       `json:"eventsProcessed"`
	ConversionSignals int       `json:"conversionSignals"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// ConversionSignalEvent announces one persisted conversion-signal event.
// The dashboard surfaces these in real time so admissions staff can see
// high-intent activity as it happens.
type ConversionSignalEvent struct {
	SubjectID  string    `json:"subjectId"`
	SessionID  string    `json:"sessionId"`
	EventType  string    `json:"eventType"`
	Section    string    `json:"section,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewBatchIngestedMessage serializes a batch event into a bus message.
// Subject and session IDs ride in metadata so subscribers can filter
// without decoding the body.
func NewBatchIngestedMessage(evt BatchIngestedEvent) (*message.Message, error) {
	return newMessage(evt.SubjectID, evt.SessionID, evt)
}

// NewConversionSignalMessage serializes a conversion event into a bus message.
func NewConversionSignalMessage(evt ConversionSignalEvent) (*message.Message, error) {
	return newMessage(evt.SubjectID, evt.SessionID, evt)
}

func newMessage(subjectID, sessionID string, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal bus event: %w", err)
	}
	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set("subject_id", subjectID)
	msg.Metadata.Set("session_id", sessionID)
	return msg, nil
}

// DecodeBatchIngested parses a TopicBatchIngested message body.
func DecodeBatchIngested(msg *message.Message) (BatchIngestedEvent, error) {
	var evt BatchIngestedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return BatchIngestedEvent{}, fmt.Errorf("decode batch event: %w", err)
	}
	return evt, nil
}

// DecodeConversionSignal parses a TopicConversionSignal message body.
func DecodeConversionSignal(msg *message.Message) (ConversionSignalEvent, error) {
	var evt ConversionSignalEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return ConversionSignalEvent{}, fmt.Errorf("decode conversion event: %w", err)
	}
	return evt, nil
}
