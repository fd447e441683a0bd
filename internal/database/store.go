// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// The DuckDB store is the default BusinessSource and SocialSource: it serves
// whatever the importer and the signal consumer have written. Empty results
// mean "no competitors / no signals", never an error; only the connection
// failing surfaces as upstream-unavailable.

const businessColumns = "id, name, category, lat, lon, rating, review_count"
const signalColumns = "id, category, channel, signal_type, text, engagement, lat, lon, posted_at"

// FetchByBounds returns businesses of the category inside the box, using the
// same half-open bounds as BoundingBox.Contains so a business on a shared
// cell edge is served exactly once.
func (db *DB) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE category = ?
		  AND lat >= ? AND lat < ?
		  AND lon >= ? AND lon < ?
		ORDER BY id`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare businesses by bounds: %w", models.ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	records, err := queryAndScan(ctx, stmt,
		[]interface{}{category, bounds.South, bounds.North, bounds.West, bounds.East},
		scanBusiness)
	metrics.RecordDBQuery("select", "businesses", time.Since(start), err)
	metrics.RecordSourceFetch("duckdb", "fetch_by_bounds", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: duckdb businesses by bounds: %w", models.ErrUpstreamUnavailable, err)
	}
	return records, nil
}

// FetchByRadius returns businesses of the category within radiusM meters of
// center. A degree-box prefilter runs in SQL; exact great-circle distance
// refines in Go.
func (db *DB) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	latDelta, lonDelta := degreeDeltas(center.Lat, radiusM)

	const query = `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE category = ?
		  AND lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?
		ORDER BY id`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare businesses by radius: %w", models.ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	records, err := queryAndScan(ctx, stmt,
		[]interface{}{category, center.Lat - latDelta, center.Lat + latDelta, center.Lon - lonDelta, center.Lon + lonDelta},
		scanBusiness)
	metrics.RecordDBQuery("select", "businesses", time.Since(start), err)
	metrics.RecordSourceFetch("duckdb", "fetch_by_radius", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: duckdb businesses by radius: %w", models.ErrUpstreamUnavailable, err)
	}

	within := records[:0]
	for _, rec := range records {
		if grid.HaversineKm(center, rec.Location)*1000 <= radiusM {
			within = append(within, rec)
		}
	}
	return within, nil
}

// BusinessesWithin returns all businesses of every category within radiusM
// meters of center. BEV generation needs the whole environment, not one
// category, so this skips the category filter of FetchByRadius.
func (db *DB) BusinessesWithin(ctx context.Context, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	latDelta, lonDelta := degreeDeltas(center.Lat, radiusM)

	const query = `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?
		ORDER BY id`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare businesses within radius: %w", models.ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	records, err := queryAndScan(ctx, stmt,
		[]interface{}{center.Lat - latDelta, center.Lat + latDelta, center.Lon - lonDelta, center.Lon + lonDelta},
		scanBusiness)
	metrics.RecordDBQuery("select", "businesses", time.Since(start), err)
	metrics.RecordSourceFetch("duckdb", "businesses_within", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: duckdb businesses within radius: %w", models.ErrUpstreamUnavailable, err)
	}

	within := records[:0]
	for _, rec := range records {
		if grid.HaversineKm(center, rec.Location)*1000 <= radiusM {
			within = append(within, rec)
		}
	}
	return within, nil
}

// Fetch returns social signals for the category inside the box posted within
// the last windowDays days. Signals without coordinates are included with a
// nil location; they count toward category totals but never toward a grid.
// A non-positive window disables the time filter.
func (db *DB) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	cutoff := time.Time{}
	if windowDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -windowDays)
	}

	const query = `
		SELECT ` + signalColumns + `
		FROM social_signals
		WHERE category = ?
		  AND posted_at >= ?
		  AND (lat IS NULL OR (lat >= ? AND lat < ? AND lon >= ? AND lon < ?))
		ORDER BY id`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare social signals: %w", models.ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	signals, err := queryAndScan(ctx, stmt,
		[]interface{}{category, cutoff, bounds.South, bounds.North, bounds.West, bounds.East},
		scanSignal)
	metrics.RecordDBQuery("select", "social_signals", time.Since(start), err)
	metrics.RecordSourceFetch("duckdb", "fetch_signals", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: duckdb social signals: %w", models.ErrUpstreamUnavailable, err)
	}
	return signals, nil
}

func scanBusiness(rows *sql.Rows) (models.BusinessRecord, error) {
	var (
		rec    models.BusinessRecord
		rating sql.NullFloat64
	)
	if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Location.Lat, &rec.Location.Lon, &rating, &rec.ReviewCount); err != nil {
		return models.BusinessRecord{}, err
	}
	if rating.Valid {
		r := rating.Float64
		rec.Rating = &r
	}
	return rec, nil
}

func scanSignal(rows *sql.Rows) (models.SocialSignal, error) {
	var (
		sig      models.SocialSignal
		lat, lon sql.NullFloat64
	)
	if err := rows.Scan(&sig.ID, &sig.Category, &sig.Channel, (*string)(&sig.Type), &sig.Text, &sig.Engagement, &lat, &lon, &sig.PostedAt); err != nil {
		return models.SocialSignal{}, err
	}
	if lat.Valid && lon.Valid {
		sig.Location = &models.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
	}
	return sig, nil
}

// degreeDeltas converts a meter radius to lat/lon degree deltas at the given
// latitude. Longitude degrees shrink with cos(lat); near the poles the lon
// delta saturates to the full range.
func degreeDeltas(lat, radiusM float64) (latDelta, lonDelta float64) {
	const metersPerDegree = 111320.0

	latDelta = radiusM / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return latDelta, 180
	}
	return latDelta, radiusM / (metersPerDegree * cosLat)
}
