// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build !nats

package main

import (
	"context"

	"github.com/tomtom215/situs/internal/config"
	"github.com/tomtom215/situs/internal/database"
	"github.com/tomtom215/situs/internal/logging"
)

// IngestComponents is a stub for non-NATS builds.
type IngestComponents struct{}

// InitIngest is a no-op stub for non-NATS builds.
// Returns nil to indicate signal ingestion is not available.
func InitIngest(cfg *config.Config, _ *database.DB) (*IngestComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("nats.enabled=true but ingestion support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Start is a no-op stub for non-NATS builds.
func (c *IngestComponents) Start(_ context.Context) error {
	return nil
}

// Shutdown is a no-op stub for non-NATS builds.
func (c *IngestComponents) Shutdown(_ context.Context) {}

// IsRunning returns false for non-NATS builds.
func (c *IngestComponents) IsRunning() bool {
	return false
}
