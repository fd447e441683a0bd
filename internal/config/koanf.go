// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/situs/internal/scoring"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/situs/config.yaml",
	"/etc/situs/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "SITUS_CONFIG"

// envPrefix namespaces Situs environment variables. Nesting uses "__":
// SITUS_SERVER__PORT -> server.port.
const envPrefix = "SITUS_"

// defaultConfig returns a Config with every setting at its sensible default.
// Defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8095,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Grid: GridConfig{
			CellSizeM: 100,
			Regions:   []RegionConfig{},
		},
		Scoring: ScoringConfig{
			Categories:     []string{"gym", "cafe", "pharmacy"},
			Channels:       []string{"instagram", "reddit"},
			WindowDays:     90,
			RulesPath:      "",
			GridWeights:    scoring.DefaultGridWeights(),
			Weights:        scoring.DefaultWeights(),
			Tiers:          scoring.DefaultTiers(),
			Workers:        0, // 0 = runtime.NumCPU()
			TraceEnabled:   false,
			TopPosts:       3,
			TopCompetitors: 5,
			Complementary: map[string][]string{
				"gym":      {"juice_bar", "pharmacy", "sports_store"},
				"cafe":     {"bookstore", "coworking", "bakery"},
				"pharmacy": {"clinic", "hospital", "supermarket"},
			},
			PointRadiusM: 1000,
		},
		Contextual: ContextualConfig{
			Enabled:           false, // full mode degrades to rule-only when disabled
			BaseURL:           "",
			APIKey:            "",
			Model:             "",
			Timeout:           8 * time.Second,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Sources: SourcesConfig{
			Provider: "duckdb",
			Overpass: OverpassConfig{
				Endpoint:          "",
				Timeout:           25 * time.Second,
				RequestsPerSecond: 1, // public-instance usage policy
			},
			Postgres: PostgresConfig{
				DSN:             "",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
			CacheTTL:      5 * time.Minute,
			RetryAttempts: 5,
			RetryDelay:    2 * time.Second,
		},
		Database: DatabaseConfig{
			Path:                   "/data/situs.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Path:    "/data/cache",
			TTL:     5 * time.Minute,
		},
		NATS: NATSConfig{
			Enabled:             false, // opt-in: imports alone keep the store usable
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamRetentionDays: 7,
			BatchSize:           500,
			FlushInterval:       5 * time.Second,
			SubscribersCount:    2,
			DurableName:         "signal-consumer",
			QueueGroup:          "signal-consumers",
		},
		WebSocket: WebSocketConfig{
			Enabled:       true,
			BufferSize:    256,
			ProgressEvery: 25,
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			DefaultLimit:    10,
			MaxLimit:        100,
			SwaggerEnabled:  true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// SITUS_-prefixed environment variables, then validates it. Validation
// failures wrap models.ErrConfiguration and are fatal at startup.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// SITUS_SERVER__PORT -> server.port, SITUS_SCORING__WINDOW_DAYS -> scoring.window_days
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; known slice fields split on commas.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive from the environment as plain strings.
var sliceConfigPaths = []string{
	"scoring.categories",
	"scoring.channels",
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// the known slice fields. YAML-provided slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps a SITUS_ environment variable name to its koanf
// path: the prefix drops, "__" becomes the section separator, the rest
// lowercases. SITUS_SOURCES__POSTGRES__DSN -> sources.postgres.dsn.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}
