// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// AppendSignals writes one batch of ingested social signals in a single
// transaction. The signal consumer calls this on flush; INSERT OR REPLACE
// keeps redelivered events idempotent by signal ID.
func (db *DB) AppendSignals(ctx context.Context, signals []models.SocialSignal) error {
	if len(signals) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.appendSignals(ctx, signals)
	metrics.RecordDBQuery("insert", "social_signals", time.Since(start), err)
	return err
}

func (db *DB) appendSignals(ctx context.Context, signals []models.SocialSignal) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin signal batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit
	}()

	for _, s := range signals {
		var lat, lon interface{}
		if s.Location != nil {
			lat, lon = s.Location.Lat, s.Location.Lon
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO social_signals (id, category, channel, signal_type, text, engagement, lat, lon, posted_at, fingerprint)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Category, s.Channel, string(s.Type), s.Text, s.Engagement, lat, lon, s.PostedAt.UTC(), "stream",
		); err != nil {
			return fmt.Errorf("append signal %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signal batch: %w", err)
	}
	return nil
}
