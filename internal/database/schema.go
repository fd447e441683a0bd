// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements
func tableCreationQueries() []string {
	return []string{
		// Businesses table - one row per imported business record.
		// rating is NULL when the upstream dataset carried no rating;
		// NULL never collapses to 0 on read.
		`CREATE TABLE IF NOT EXISTS businesses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			rating DOUBLE,
			review_count INTEGER NOT NULL DEFAULT 0,
			fingerprint TEXT NOT NULL,
			imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Social signals table - one row per demand/complaint/mention post.
		// lat/lon are NULL for posts without a usable geotag; such posts
		// still count toward category-wide totals but never toward a grid.
		`CREATE TABLE IF NOT EXISTS social_signals (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			channel TEXT NOT NULL,
			signal_type TEXT NOT NULL CHECK (signal_type IN ('demand', 'complaint', 'mention')),
			text TEXT NOT NULL,
			engagement DOUBLE NOT NULL DEFAULT 0,
			lat DOUBLE,
			lon DOUBLE,
			posted_at TIMESTAMP NOT NULL,
			fingerprint TEXT NOT NULL,
			imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Dataset imports table - one row per imported payload, keyed by the
		// BLAKE2b-256 content fingerprint. A recorded fingerprint makes
		// re-importing the same payload a no-op.
		`CREATE TABLE IF NOT EXISTS dataset_imports (
			fingerprint TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK (kind IN ('businesses', 'signals')),
			record_count INTEGER NOT NULL,
			imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
}

// createIndexes creates indexes for the query patterns the pipeline uses:
// category + bbox scans over businesses, category + window scans over signals.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);`,
		`CREATE INDEX IF NOT EXISTS idx_businesses_category_lat_lon ON businesses(category, lat, lon);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_category ON social_signals(category);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_posted_at ON social_signals(posted_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_category_posted ON social_signals(category, posted_at);`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
