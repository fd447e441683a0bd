// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/situs/internal/models"
)

// Validate checks the whole configuration. Every violation wraps
// models.ErrConfiguration: bad configuration is fatal at startup and never
// retried.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateContextual(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateAPI()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d outside [1,65535]", models.ErrConfiguration, c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("%w: server timeout must be positive", models.ErrConfiguration)
	}
	switch c.Server.Environment {
	case "development", "production":
		return nil
	}
	return fmt.Errorf("%w: server environment %q must be development or production", models.ErrConfiguration, c.Server.Environment)
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging level %q not recognized", models.ErrConfiguration, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("%w: logging format %q must be json or console", models.ErrConfiguration, c.Logging.Format)
}

// validateGrid checks the cell-size range and every region rectangle. The
// same constraints are re-enforced by grid.Partition at build time; failing
// here gives the operator the config path instead of a partition stack.
func (c *Config) validateGrid() error {
	if c.Grid.CellSizeM < 50 || c.Grid.CellSizeM > 150 {
		return fmt.Errorf("%w: grid cell_size_m %v outside [50,150]", models.ErrConfiguration, c.Grid.CellSizeM)
	}

	seen := make(map[string]struct{}, len(c.Grid.Regions))
	for _, r := range c.Grid.Regions {
		if r.Name == "" {
			return fmt.Errorf("%w: grid region with empty name", models.ErrConfiguration)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: grid region %q declared twice", models.ErrConfiguration, r.Name)
		}
		seen[r.Name] = struct{}{}

		if r.North <= r.South {
			return fmt.Errorf("%w: region %q has north %v <= south %v", models.ErrConfiguration, r.Name, r.North, r.South)
		}
		if r.East <= r.West {
			return fmt.Errorf("%w: region %q has east %v <= west %v", models.ErrConfiguration, r.Name, r.East, r.West)
		}
		if r.North > 90 || r.South < -90 || r.East > 180 || r.West < -180 {
			return fmt.Errorf("%w: region %q bounds leave the lat/lon domain", models.ErrConfiguration, r.Name)
		}
	}
	return nil
}

func (c *Config) validateScoring() error {
	s := &c.Scoring
	if len(s.Categories) == 0 {
		return fmt.Errorf("%w: scoring needs at least one category", models.ErrConfiguration)
	}
	if len(s.Channels) == 0 {
		return fmt.Errorf("%w: scoring needs at least one social channel", models.ErrConfiguration)
	}
	if s.WindowDays < 0 {
		return fmt.Errorf("%w: scoring window_days %d is negative", models.ErrConfiguration, s.WindowDays)
	}
	if s.Workers < 0 {
		return fmt.Errorf("%w: scoring workers %d is negative", models.ErrConfiguration, s.Workers)
	}
	if s.TopPosts <= 0 || s.TopCompetitors <= 0 {
		return fmt.Errorf("%w: scoring evidence limits must be positive", models.ErrConfiguration)
	}
	if s.PointRadiusM < 100 || s.PointRadiusM > 5000 {
		return fmt.Errorf("%w: scoring point_radius_m %v outside [100,5000]", models.ErrConfiguration, s.PointRadiusM)
	}

	// Grid-formula weights: each in [0,1], summing to 1.0.
	if err := s.GridWeights.Validate(); err != nil {
		return err
	}
	// Every weighted channel must be an aggregated channel, or its demand
	// feature would always read zero.
	known := make(map[string]struct{}, len(s.Channels))
	for _, ch := range s.Channels {
		known[ch] = struct{}{}
	}
	for _, ch := range s.GridWeights.ChannelNames() {
		if _, ok := known[ch]; !ok {
			return fmt.Errorf("%w: grid weight channel %q is not an aggregated channel", models.ErrConfiguration, ch)
		}
	}

	// Blend weights must sum to 1.0; tiers must descend strictly.
	if sum := s.Weights.Rule + s.Weights.Contextual; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: blend weights sum to %v, want 1.0", models.ErrConfiguration, sum)
	}
	t := s.Tiers
	if !(t.Excellent <= 1 && t.Excellent > t.Good && t.Good > t.Moderate && t.Moderate > t.Poor && t.Poor > 0) {
		return fmt.Errorf("%w: suitability tiers %+v must descend strictly inside (0,1]", models.ErrConfiguration, t)
	}
	return nil
}

func (c *Config) validateContextual() error {
	if !c.Contextual.Enabled {
		return nil
	}
	if c.Contextual.BaseURL == "" {
		return fmt.Errorf("%w: contextual.base_url is required when the evaluator is enabled", models.ErrConfiguration)
	}
	if c.Contextual.Timeout <= 0 {
		return fmt.Errorf("%w: contextual.timeout must be positive", models.ErrConfiguration)
	}
	return nil
}

func (c *Config) validateSources() error {
	switch c.Sources.Provider {
	case "duckdb", "overpass":
	case "postgres":
		if c.Sources.Postgres.DSN == "" {
			return fmt.Errorf("%w: sources.postgres.dsn is required for the postgres provider", models.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: sources.provider %q must be duckdb, overpass, or postgres", models.ErrConfiguration, c.Sources.Provider)
	}
	if c.Sources.RetryAttempts < 0 {
		return fmt.Errorf("%w: sources.retry_attempts %d is negative", models.ErrConfiguration, c.Sources.RetryAttempts)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("%w: cache.path is required for the badger backend", models.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: cache.backend %q must be memory or badger", models.ErrConfiguration, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl is negative", models.ErrConfiguration)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats.url is required when the embedded server is disabled", models.ErrConfiguration)
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("%w: nats.store_dir is required for the embedded server", models.ErrConfiguration)
	}
	if c.NATS.BatchSize <= 0 {
		return fmt.Errorf("%w: nats.batch_size must be positive", models.ErrConfiguration)
	}
	if c.NATS.FlushInterval <= 0 {
		return fmt.Errorf("%w: nats.flush_interval must be positive", models.ErrConfiguration)
	}
	if c.NATS.StreamRetentionDays <= 0 {
		return fmt.Errorf("%w: nats.stream_retention_days must be positive", models.ErrConfiguration)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultLimit < 1 || c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("%w: api limits default=%d max=%d are inconsistent", models.ErrConfiguration, c.API.DefaultLimit, c.API.MaxLimit)
	}
	if c.API.RateLimitReqs < 0 || c.API.RateLimitWindow < 0 {
		return fmt.Errorf("%w: api rate limit settings are negative", models.ErrConfiguration)
	}
	return nil
}
