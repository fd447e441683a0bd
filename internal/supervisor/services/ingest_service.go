// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package services

import (
	"context"
	"fmt"
	"time"
)

// IngestRunner is the lifecycle surface of the signal ingestion components.
//
// Satisfied by *IngestComponents from cmd/server, which bundles the embedded
// NATS server, the JetStream stream, and the batch consumer. The interface
// keeps this package free of NATS imports, so the wrapper compiles with and
// without the nats build tag.
type IngestRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// IngestService wraps the signal ingestion components as a supervised
// service.
//
// It adapts the Start/Shutdown lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin all ingestion components
//  2. Waits for context cancellation
//  3. Calls Shutdown(ctx) for graceful cleanup
//
// If Start fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
type IngestService struct {
	components      IngestRunner
	shutdownTimeout time.Duration
	name            string
}

// NewIngestService creates a new signal ingestion service wrapper with a
// 10 second shutdown timeout.
func NewIngestService(components IngestRunner) *IngestService {
	return NewIngestServiceWithTimeout(components, 10*time.Second)
}

// NewIngestServiceWithTimeout creates an ingestion service with a custom
// shutdown timeout.
func NewIngestServiceWithTimeout(components IngestRunner, shutdownTimeout time.Duration) *IngestService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &IngestService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "signal-ingest",
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("signal ingestion start failed: %w", err)
	}

	<-ctx.Done()

	// Shutdown with timeout - use fresh context since original is canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *IngestService) String() string {
	return s.name
}
