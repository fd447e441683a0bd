// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// PostgresConfig configures the curated-dataset Postgres source.
type PostgresConfig struct {
	// DSN is the lib/pq connection string.
	DSN string

	// MaxOpenConns bounds the connection pool. Default 10.
	MaxOpenConns int

	// MaxIdleConns bounds idle connections. Default 5.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections. Default 30 minutes.
	ConnMaxLifetime time.Duration
}

// PostgresSource serves businesses and social signals from an existing
// curated Postgres database. Table layout mirrors the embedded dataset
// store: businesses(id, name, category, lat, lon, rating, review_count) and
// social_signals(id, category, channel, signal_type, text, engagement,
// lat, lon, posted_at) with nullable coordinates on signals.
type PostgresSource struct {
	db *sqlx.DB
}

// NewPostgresSource connects to Postgres and applies pool settings. Connect
// failures carry the sanitized DSN, never the raw one: driver errors can echo
// the connection string back with its password intact.
func NewPostgresSource(cfg PostgresConfig) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect to %s: %s",
			logging.SanitizeDSN(cfg.DSN), logging.SanitizeError(err.Error()))
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	logging.Info().
		Str("dsn", logging.SanitizeDSN(cfg.DSN)).
		Int("max_open_conns", maxOpen).
		Msg("Postgres business source connected")

	return &PostgresSource{db: db}, nil
}

// NewPostgresSourceFromDB wraps an existing connection, used by integration
// tests that provision their own database.
func NewPostgresSourceFromDB(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

type pgBusinessRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Lat         float64         `db:"lat"`
	Lon         float64         `db:"lon"`
	Rating      sql.NullFloat64 `db:"rating"`
	ReviewCount int             `db:"review_count"`
}

func (r pgBusinessRow) toRecord() models.BusinessRecord {
	rec := models.BusinessRecord{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Location:    models.Coordinate{Lat: r.Lat, Lon: r.Lon},
		ReviewCount: r.ReviewCount,
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		rec.Rating = &rating
	}
	return rec
}

type pgSignalRow struct {
	ID         string          `db:"id"`
	Category   string          `db:"category"`
	Channel    string          `db:"channel"`
	SignalType string          `db:"signal_type"`
	Text       string          `db:"text"`
	Engagement float64         `db:"engagement"`
	Lat        sql.NullFloat64 `db:"lat"`
	Lon        sql.NullFloat64 `db:"lon"`
	PostedAt   time.Time       `db:"posted_at"`
}

func (r pgSignalRow) toSignal() models.SocialSignal {
	sig := models.SocialSignal{
		ID:         r.ID,
		Category:   r.Category,
		Channel:    r.Channel,
		Type:       models.SignalType(r.SignalType),
		Text:       r.Text,
		Engagement: r.Engagement,
		PostedAt:   r.PostedAt,
	}
	if r.Lat.Valid && r.Lon.Valid {
		sig.Location = &models.Coordinate{Lat: r.Lat.Float64, Lon: r.Lon.Float64}
	}
	return sig
}

// FetchByBounds returns businesses of the category inside the box, using the
// same half-open bounds as BoundingBox.Contains.
func (s *PostgresSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	const query = `
		SELECT id, name, category, lat, lon, rating, review_count
		FROM businesses
		WHERE category = $1
		  AND lat >= $2 AND lat < $3
		  AND lon >= $4 AND lon < $5
		ORDER BY id`

	var rows []pgBusinessRow
	start := time.Now()
	err := s.db.SelectContext(ctx, &rows, query, category, bounds.South, bounds.North, bounds.West, bounds.East)
	metrics.RecordSourceFetch("postgres", "fetch_by_bounds", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres businesses by bounds: %w", models.ErrUpstreamUnavailable, err)
	}

	records := make([]models.BusinessRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// FetchByRadius returns businesses of the category within radiusM meters of
// center. A degree-based bounding box prefilters in SQL; exact great-circle
// distance filters in Go.
func (s *PostgresSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	latDelta, lonDelta := radiusDegrees(center.Lat, radiusM)

	const query = `
		SELECT id, name, category, lat, lon, rating, review_count
		FROM businesses
		WHERE category = $1
		  AND lat BETWEEN $2 AND $3
		  AND lon BETWEEN $4 AND $5
		ORDER BY id`

	var rows []pgBusinessRow
	start := time.Now()
	err := s.db.SelectContext(ctx, &rows, query, category,
		center.Lat-latDelta, center.Lat+latDelta,
		center.Lon-lonDelta, center.Lon+lonDelta)
	metrics.RecordSourceFetch("postgres", "fetch_by_radius", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres businesses by radius: %w", models.ErrUpstreamUnavailable, err)
	}

	records := make([]models.BusinessRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.toRecord()
		if grid.HaversineKm(center, rec.Location)*1000 <= radiusM {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Fetch returns social signals for the category inside the box posted within
// the last windowDays days. Signals without coordinates are included with a
// nil location. A non-positive window disables the time filter.
func (s *PostgresSource) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	cutoff := time.Time{}
	if windowDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -windowDays)
	}

	const query = `
		SELECT id, category, channel, signal_type, text, engagement, lat, lon, posted_at
		FROM social_signals
		WHERE category = $1
		  AND posted_at >= $2
		  AND (lat IS NULL OR (lat >= $3 AND lat < $4 AND lon >= $5 AND lon < $6))
		ORDER BY id`

	var rows []pgSignalRow
	start := time.Now()
	err := s.db.SelectContext(ctx, &rows, query, category, cutoff, bounds.South, bounds.North, bounds.West, bounds.East)
	metrics.RecordSourceFetch("postgres", "fetch_signals", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres social signals: %w", models.ErrUpstreamUnavailable, err)
	}

	signals := make([]models.SocialSignal, 0, len(rows))
	for _, row := range rows {
		signals = append(signals, row.toSignal())
	}
	return signals, nil
}

// radiusDegrees converts a meter radius to degree deltas at the given
// latitude. Longitude degrees shrink with cos(lat); near the poles the
// delta saturates to the full range.
func radiusDegrees(lat, radiusM float64) (latDelta, lonDelta float64) {
	const metersPerDegree = 111320.0

	latDelta = radiusM / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return latDelta, 180
	}
	return latDelta, radiusM / (metersPerDegree * cosLat)
}

// Compile-time interface checks.
var (
	_ BusinessSource = (*PostgresSource)(nil)
	_ SocialSource   = (*PostgresSource)(nil)
)
