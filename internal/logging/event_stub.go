// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventLogger is the structured logger for the signal event path.
// This is a stub implementation for non-NATS builds.
type EventLogger struct{}

// NewEventLogger returns the event-path logger.
func NewEventLogger() *EventLogger {
	return &EventLogger{}
}

// NewEventLoggerWithLogger creates an EventLogger over a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(_ zerolog.Logger) *EventLogger {
	return &EventLogger{}
}

// LogSubscriptionStarted records the consumer subscribing (no-op).
func (e *EventLogger) LogSubscriptionStarted(_ string, _ int, _ time.Duration) {}

// LogSubscriptionStopped records the consumer shutting down (no-op).
func (e *EventLogger) LogSubscriptionStopped(_ string) {}

// LogSignalDropped records a malformed payload (no-op).
func (e *EventLogger) LogSignalDropped(_ context.Context, _ string, _ error) {}

// LogBatchFlush records a stored batch (no-op).
func (e *EventLogger) LogBatchFlush(_ context.Context, _ int, _ time.Duration) {}

// LogFlushFailed records a batch store failure (no-op).
func (e *EventLogger) LogFlushFailed(_ context.Context, _ int, _ error) {}

// LogDrained records messages drained during shutdown (no-op).
func (e *EventLogger) LogDrained(_ int) {}

// LogSignalPublished records one published event (no-op).
func (e *EventLogger) LogSignalPublished(_ context.Context, _, _ string) {}
