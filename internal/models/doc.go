// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package models defines the shared data types of the scoring engine and its
// HTTP surface: geographic primitives, grid cells, business and social-signal
// records, per-grid metrics, environment vectors, scores, recommendations, and
// the standardized API response envelope.
//
// Types in this package are plain data. They carry no behavior beyond small
// accessors and validation helpers, so every component (grid, scoring,
// explain, pipeline, api) can share them without import cycles.
//
// JSON field names on Recommendation, CategoryScore, Evidence and Explanation
// are a compatibility contract with API consumers and must remain stable
// across releases.
package models
