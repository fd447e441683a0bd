// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package sources defines the upstream data source contracts the scoring
// pipeline consumes, plus the implementations and decorators that fulfil
// them: the Overpass (OpenStreetMap) source, the Postgres source, static
// in-memory sources, and retry / circuit breaker / cache decorators.
//
// The pipeline never talks to a concrete backend; it holds a BusinessSource
// and a SocialSource and treats empty results as "no competitors / no
// signals", never as an error. Transport failures surface wrapped in
// models.ErrUpstreamUnavailable so callers can degrade instead of aborting.
package sources

import (
	"context"

	"github.com/tomtom215/situs/internal/models"
)

// BusinessSource provides business records for a category within a spatial
// query. Implementations must return an empty slice, not an error, when the
// area simply has no matching businesses.
type BusinessSource interface {
	// FetchByBounds returns all businesses of the category inside the box.
	FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error)

	// FetchByRadius returns all businesses of the category within radiusM
	// meters of center.
	FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error)
}

// SocialSource provides social signals for a category within a bounding box,
// restricted to the last windowDays days. Signals without a usable geotag are
// included; they carry a nil Location and are excluded from per-grid counts
// downstream.
type SocialSource interface {
	Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error)
}
