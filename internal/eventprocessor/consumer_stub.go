// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package eventprocessor

import (
	"context"
	"time"

	"github.com/tomtom215/situs/internal/models"
)

// SignalStore persists validated signals. Satisfied by database.DB.
type SignalStore interface {
	AppendSignals(ctx context.Context, signals []models.SocialSignal) error
}

// ConsumerStats holds runtime counters for monitoring.
type ConsumerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	ParseErrors       int64
	BatchesFlushed    int64
	LastMessageTime   time.Time
}

// SignalConsumer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable JetStream signal consumption.
type SignalConsumer struct{}

// NewSignalConsumer returns an error when NATS dependencies are not available.
func NewSignalConsumer(source interface{}, store SignalStore, cfg BusConfig) (*SignalConsumer, error) {
	return nil, ErrNATSNotEnabled
}

// Start is a stub that returns an error.
func (c *SignalConsumer) Start(ctx context.Context) error {
	return ErrNATSNotEnabled
}

// Stop is a no-op stub.
func (c *SignalConsumer) Stop() {}

// IsRunning always reports false for the stub.
func (c *SignalConsumer) IsRunning() bool { return false }

// Stats returns zero counters for the stub.
func (c *SignalConsumer) Stats() ConsumerStats { return ConsumerStats{} }
