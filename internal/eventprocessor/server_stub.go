// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package eventprocessor

import "context"

// EmbeddedServer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable the embedded JetStream server.
type EmbeddedServer struct{}

// NewEmbeddedServer returns an error when NATS dependencies are not available.
func NewEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSNotEnabled
}

// ClientURL returns an empty URL for the stub.
func (s *EmbeddedServer) ClientURL() string { return "" }

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error { return nil }

// IsRunning always reports false for the stub.
func (s *EmbeddedServer) IsRunning() bool { return false }
