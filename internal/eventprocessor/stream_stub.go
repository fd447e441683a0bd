// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package eventprocessor

import "context"

// StreamInitializer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable JetStream stream provisioning.
type StreamInitializer struct{}

// NewStreamInitializer returns an error when NATS dependencies are not available.
func NewStreamInitializer(js interface{}, cfg BusConfig) (*StreamInitializer, error) {
	return nil, ErrNATSNotEnabled
}

// EnsureStream is a stub that returns an error.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (interface{}, error) {
	return nil, ErrNATSNotEnabled
}

// IsHealthy always reports false for the stub.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	return false
}
