// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// importBatchSize bounds one INSERT batch inside the import transaction.
const importBatchSize = 500

// DatasetPayload is the import request body: a JSON array of businesses
// and/or social signals. At least one list must be non-empty.
type DatasetPayload struct {
	Businesses []models.BusinessRecord `json:"businesses,omitempty"`
	Signals    []models.SocialSignal   `json:"signals,omitempty"`
}

// ImportStats reports one import operation. Duplicate means the payload's
// fingerprint was already recorded and nothing was written.
type ImportStats struct {
	Fingerprint string    `json:"fingerprint"`
	Businesses  int       `json:"businesses"`
	Signals     int       `json:"signals"`
	Duplicate   bool      `json:"duplicate"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// ImportProgress is the resumable checkpoint persisted while an import runs.
type ImportProgress struct {
	Fingerprint string    `json:"fingerprint"`
	Done        int       `json:"done"`
	Total       int       `json:"total"`
	StartedAt   time.Time `json:"started_at"`
}

// ProgressTracker persists import checkpoints so an interrupted import is
// observable and resumable. BadgerProgress persists across restarts;
// InMemoryProgress serves tests.
type ProgressTracker interface {
	Save(ctx context.Context, p *ImportProgress) error
	Load(ctx context.Context) (*ImportProgress, error)
	Clear(ctx context.Context) error
}

// Importer writes dataset payloads into the store. One import runs at a
// time; a second concurrent call fails with ErrImportInProgress rather than
// interleaving transactions.
type Importer struct {
	db       *DB
	progress ProgressTracker

	mu      sync.Mutex
	running bool
}

// NewImporter creates an importer over the store. progress may be nil, which
// disables checkpointing.
func NewImporter(db *DB, progress ProgressTracker) *Importer {
	return &Importer{db: db, progress: progress}
}

// Fingerprint computes the BLAKE2b-256 content fingerprint of a payload over
// its canonical JSON serialization, hex encoded.
func Fingerprint(payload *DatasetPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Import validates and writes one payload. Re-importing a payload whose
// fingerprint is already recorded is a no-op returning Duplicate=true:
// imports are idempotent by content, not by request.
func (im *Importer) Import(ctx context.Context, payload *DatasetPayload) (*ImportStats, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	im.mu.Lock()
	if im.running {
		im.mu.Unlock()
		return nil, ErrImportInProgress
	}
	im.running = true
	im.mu.Unlock()
	defer func() {
		im.mu.Lock()
		im.running = false
		im.mu.Unlock()
	}()

	fingerprint, err := Fingerprint(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	stats := &ImportStats{
		Fingerprint: fingerprint,
		StartedAt:   time.Now().UTC(),
	}

	known, err := im.db.hasImport(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if known {
		stats.Duplicate = true
		logging.Info().Str("fingerprint", fingerprint).Msg("Dataset already imported, skipping")
		return stats, nil
	}

	total := len(payload.Businesses) + len(payload.Signals)
	im.checkpoint(ctx, &ImportProgress{
		Fingerprint: fingerprint,
		Total:       total,
		StartedAt:   stats.StartedAt,
	})

	start := time.Now()
	err = im.write(ctx, fingerprint, payload, stats)
	metrics.RecordImportOperation(time.Since(start), stats.Businesses, stats.Signals, err)
	if err != nil {
		return nil, err
	}
	stats.DurationMS = time.Since(start).Milliseconds()

	if im.progress != nil {
		if clearErr := im.progress.Clear(ctx); clearErr != nil {
			logging.Warn().Err(clearErr).Msg("Failed to clear import progress")
		}
	}

	logging.Info().
		Str("fingerprint", fingerprint).
		Int("businesses", stats.Businesses).
		Int("signals", stats.Signals).
		Int64("duration_ms", stats.DurationMS).
		Msg("Dataset import complete")

	return stats, nil
}

// write performs the batched inserts and the fingerprint record in a single
// transaction: a crash mid-import leaves no partial dataset behind.
func (im *Importer) write(ctx context.Context, fingerprint string, payload *DatasetPayload, stats *ImportStats) error {
	tx, err := im.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit
	}()

	done := 0
	total := len(payload.Businesses) + len(payload.Signals)

	for batchStart := 0; batchStart < len(payload.Businesses); batchStart += importBatchSize {
		batch := payload.Businesses[batchStart:min(batchStart+importBatchSize, len(payload.Businesses))]
		for _, b := range batch {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO businesses (id, name, category, lat, lon, rating, review_count, fingerprint)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				b.ID, b.Name, b.Category, b.Location.Lat, b.Location.Lon, nullableFloat(b.Rating), b.ReviewCount, fingerprint,
			); err != nil {
				return fmt.Errorf("insert business %s: %w", b.ID, err)
			}
		}
		stats.Businesses += len(batch)
		done += len(batch)
		metrics.RecordImportBatch(len(batch))
		im.checkpoint(ctx, &ImportProgress{Fingerprint: fingerprint, Done: done, Total: total, StartedAt: stats.StartedAt})
	}

	for batchStart := 0; batchStart < len(payload.Signals); batchStart += importBatchSize {
		batch := payload.Signals[batchStart:min(batchStart+importBatchSize, len(payload.Signals))]
		for _, s := range batch {
			var lat, lon interface{}
			if s.Location != nil {
				lat, lon = s.Location.Lat, s.Location.Lon
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO social_signals (id, category, channel, signal_type, text, engagement, lat, lon, posted_at, fingerprint)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.Category, s.Channel, string(s.Type), s.Text, s.Engagement, lat, lon, s.PostedAt.UTC(), fingerprint,
			); err != nil {
				return fmt.Errorf("insert signal %s: %w", s.ID, err)
			}
		}
		stats.Signals += len(batch)
		done += len(batch)
		metrics.RecordImportBatch(len(batch))
		im.checkpoint(ctx, &ImportProgress{Fingerprint: fingerprint, Done: done, Total: total, StartedAt: stats.StartedAt})
	}

	kind := "businesses"
	if len(payload.Signals) > 0 && len(payload.Businesses) == 0 {
		kind = "signals"
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dataset_imports (fingerprint, kind, record_count) VALUES (?, ?, ?)`,
		fingerprint, kind, total,
	); err != nil {
		return fmt.Errorf("record import fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// checkpoint saves progress best-effort; a failed checkpoint never fails the
// import itself.
func (im *Importer) checkpoint(ctx context.Context, p *ImportProgress) {
	if im.progress == nil {
		return
	}
	if err := im.progress.Save(ctx, p); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint import progress")
	}
}

// hasImport reports whether a fingerprint is already recorded.
func (db *DB) hasImport(ctx context.Context, fingerprint string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dataset_imports WHERE fingerprint = ?`, fingerprint,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check import fingerprint: %w", err)
	}
	return count > 0, nil
}

func validatePayload(payload *DatasetPayload) error {
	if payload == nil || (len(payload.Businesses) == 0 && len(payload.Signals) == 0) {
		return fmt.Errorf("%w: payload carries no businesses and no signals", ErrInvalidDataset)
	}
	for _, b := range payload.Businesses {
		if b.ID == "" || b.Category == "" {
			return fmt.Errorf("%w: business with empty id or category", ErrInvalidDataset)
		}
	}
	for _, s := range payload.Signals {
		if s.ID == "" || s.Category == "" {
			return fmt.Errorf("%w: signal with empty id or category", ErrInvalidDataset)
		}
		if !s.Type.Valid() {
			return fmt.Errorf("%w: signal %s has invalid type %q", ErrInvalidDataset, s.ID, s.Type)
		}
	}
	return nil
}
