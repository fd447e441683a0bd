// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package eventprocessor

import "context"

// Subscriber is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill subscriber support.
type Subscriber struct{}

// NewSubscriber returns an error when NATS dependencies are not available.
func NewSubscriber(cfg BusConfig, logger interface{}) (*Subscriber, error) {
	return nil, ErrNATSNotEnabled
}

// Subscribe is a stub that returns an error.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (interface{}, error) {
	return nil, ErrNATSNotEnabled
}

// Close is a no-op stub.
func (s *Subscriber) Close() error {
	return nil
}
