// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build nats

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventLogger is the structured logger for the signal event path. The
// consumer and publisher share it so ingestion logs carry a consistent
// component field and correlation IDs from the message context.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger returns the event-path logger backed by the global logger.
func NewEventLogger() *EventLogger {
	return &EventLogger{
		logger: With().Str("component", "eventprocessor").Logger(),
	}
}

// NewEventLoggerWithLogger creates an EventLogger over a custom logger,
// used by tests that capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "eventprocessor").Logger(),
	}
}

// withContext returns a logger carrying the correlation and request IDs
// found in ctx, if any.
func (e *EventLogger) withContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}

	return logCtx.Logger()
}

// LogSubscriptionStarted records the consumer subscribing to its subjects.
func (e *EventLogger) LogSubscriptionStarted(topic string, batchSize int, flushInterval time.Duration) {
	e.logger.Info().
		Str("topic", topic).
		Int("batch_size", batchSize).
		Dur("flush_interval", flushInterval).
		Msg("Signal consumer subscribed")
}

// LogSubscriptionStopped records the consumer shutting down.
func (e *EventLogger) LogSubscriptionStopped(topic string) {
	e.logger.Info().Str("topic", topic).Msg("Signal consumer stopped")
}

// LogSignalDropped records a malformed payload acked without storage.
// Redelivery cannot fix malformed data, so the message is dropped.
func (e *EventLogger) LogSignalDropped(ctx context.Context, messageID string, err error) {
	logger := e.withContext(ctx)
	logger.Warn().
		Str("message_uuid", messageID).
		Err(err).
		Msg("Dropping malformed signal event")
}

// LogBatchFlush records a batch durably stored and acked.
func (e *EventLogger) LogBatchFlush(ctx context.Context, count int, duration time.Duration) {
	logger := e.withContext(ctx)
	logger.Debug().
		Int("batch_size", count).
		Dur("duration", duration).
		Msg("Signal batch flushed")
}

// LogFlushFailed records a batch store failure. The whole batch is nacked
// for redelivery.
func (e *EventLogger) LogFlushFailed(ctx context.Context, count int, err error) {
	logger := e.withContext(ctx)
	logger.Warn().
		Int("batch_size", count).
		Err(err).
		Msg("Signal batch flush failed, nacking for redelivery")
}

// LogDrained records messages pulled from the channel buffer during shutdown.
func (e *EventLogger) LogDrained(count int) {
	e.logger.Info().Int("count", count).Msg("Signal consumer drained messages during shutdown")
}

// LogSignalPublished records one event handed to JetStream.
func (e *EventLogger) LogSignalPublished(ctx context.Context, eventID, topic string) {
	logger := e.withContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("topic", topic).
		Msg("Signal event published")
}
