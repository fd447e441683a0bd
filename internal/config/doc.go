// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package config loads and validates the application configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file (config.yaml, or the path in SITUS_CONFIG), then
// SITUS_-prefixed environment variables with "__" as the nesting separator
// (SITUS_SERVER__PORT=8095 sets server.port).
//
// Validation runs once at load. Violations wrap models.ErrConfiguration and
// abort startup: a process with a bad cell size, blend weights that do not
// sum to 1.0, or a degenerate region rectangle must never begin serving.
package config
