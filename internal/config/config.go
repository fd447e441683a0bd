// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package config

import (
	"time"

	"github.com/tomtom215/situs/internal/scoring"
)

// Config holds all application configuration, loaded in three layers:
//
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config File: optional YAML file (config.yaml or SITUS_CONFIG path)
//  3. Environment Variables: SITUS_ prefix, "__" for nesting, highest priority
//
// The zero value is not usable; obtain a Config through Load().
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Grid       GridConfig       `koanf:"grid"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Contextual ContextualConfig `koanf:"contextual"`
	Sources    SourcesConfig    `koanf:"sources"`
	Database   DatabaseConfig   `koanf:"database"`
	Cache      CacheConfig      `koanf:"cache"`
	NATS       NATSConfig       `koanf:"nats"` // Optional: social-signal ingestion bus
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	API        APIConfig        `koanf:"api"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// RegionConfig declares one scored region by its bounding rectangle.
// Partitions are built and verified from these at process start; an unknown
// region name in a request is a NotFound to the caller, never a crash.
type RegionConfig struct {
	Name  string  `koanf:"name"`
	North float64 `koanf:"north"`
	South float64 `koanf:"south"`
	East  float64 `koanf:"east"`
	West  float64 `koanf:"west"`
}

// GridConfig configures region partitioning.
type GridConfig struct {
	// CellSizeM is the target cell edge in meters. Valid range 50-150.
	CellSizeM float64        `koanf:"cell_size_m"`
	Regions   []RegionConfig `koanf:"regions"`
}

// ScoringConfig configures the scoring core: the categories and social
// channels it recognizes, the rolling signal window, the rule tables, the
// blend weights, and the sweep worker pool.
type ScoringConfig struct {
	Categories []string `koanf:"categories"`
	Channels   []string `koanf:"channels"`

	// WindowDays bounds social signals to the last N days. Zero disables
	// time filtering.
	WindowDays int `koanf:"window_days"`

	// RulesPath optionally points at a YAML rule-table file. Empty uses
	// the built-in default tables derived from GridWeights.
	RulesPath string `koanf:"rules_path"`

	// GridWeights parameterize the default grid-sweep formula.
	GridWeights scoring.GridWeights `koanf:"grid_weights"`

	// Weights blend the rule score with the contextual probability in
	// full mode. Must sum to 1.0.
	Weights scoring.Weights `koanf:"weights"`

	// Tiers are the suitability thresholds, strictly descending.
	Tiers scoring.Tiers `koanf:"tiers"`

	// Workers bounds the sweep worker pool. Zero means runtime.NumCPU().
	Workers int `koanf:"workers"`

	// TraceEnabled includes per-rule traces in responses.
	TraceEnabled bool `koanf:"trace_enabled"`

	// TopPosts and TopCompetitors bound the evidence lists.
	TopPosts       int `koanf:"top_posts"`
	TopCompetitors int `koanf:"top_competitors"`

	// Complementary maps a category to the neighboring categories that
	// strengthen it (a gym near juice bars, a cafe near bookstores).
	Complementary map[string][]string `koanf:"complementary"`

	// PointRadiusM is the default point-query radius in meters.
	PointRadiusM float64 `koanf:"point_radius_m"`
}

// ContextualConfig configures the external contextual evaluator used by
// full-mode scoring. Disabled means full-mode requests score rule-only.
type ContextualConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// SourcesConfig selects and configures the upstream data providers.
type SourcesConfig struct {
	// Provider selects the business/social source backend:
	// duckdb (imported datasets), overpass (OSM businesses + duckdb
	// signals), or postgres (curated external database).
	Provider string `koanf:"provider"`

	Overpass OverpassConfig `koanf:"overpass"`
	Postgres PostgresConfig `koanf:"postgres"`

	// CacheTTL bounds the cached-source decorator's entry lifetime.
	// Zero disables source caching.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RetryAttempts and RetryDelay shape the bounded exponential backoff
	// applied before a source failure surfaces as upstream-unavailable.
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// OverpassConfig configures the OSM Overpass business source.
type OverpassConfig struct {
	Endpoint          string        `koanf:"endpoint"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// PostgresConfig configures the curated-dataset Postgres source.
type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DatabaseConfig configures the embedded DuckDB dataset store.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// CacheConfig configures collaborator-side caching.
type CacheConfig struct {
	// Backend is "memory" or "badger".
	Backend string        `koanf:"backend"`
	Path    string        `koanf:"path"` // BadgerDB directory, badger backend only
	TTL     time.Duration `koanf:"ttl"`
}

// NATSConfig configures the social-signal ingestion bus. When disabled
// nothing connects and the dataset store is fed by imports only.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	StreamRetentionDays int           `koanf:"stream_retention_days"`
	BatchSize           int           `koanf:"batch_size"`
	FlushInterval       time.Duration `koanf:"flush_interval"`
	SubscribersCount    int           `koanf:"subscribers_count"`
	DurableName         string        `koanf:"durable_name"`
	QueueGroup          string        `koanf:"queue_group"`
}

// WebSocketConfig configures the sweep progress stream.
type WebSocketConfig struct {
	Enabled bool `koanf:"enabled"`

	// BufferSize bounds the per-client send queue; slow consumers drop
	// the oldest event rather than blocking the hub.
	BufferSize int `koanf:"buffer_size"`

	// ProgressEvery emits a per-grid completion event every K grids
	// during a sweep.
	ProgressEvery int `koanf:"progress_every"`
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	DefaultLimit    int           `koanf:"default_limit"` // default rank list length
	MaxLimit        int           `koanf:"max_limit"`
	SwaggerEnabled  bool          `koanf:"swagger_enabled"`
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
