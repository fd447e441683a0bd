// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is an axis-aligned lat/lon rectangle. North > South and
// East > West for every non-degenerate box; boxes never wrap the antimeridian.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Width returns the longitudinal extent in degrees.
func (b BoundingBox) Width() float64 { return b.East - b.West }

// Height returns the latitudinal extent in degrees.
func (b BoundingBox) Height() float64 { return b.North - b.South }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.North + b.South) / 2,
		Lon: (b.East + b.West) / 2,
	}
}

// Contains reports whether the point lies inside the box using half-open
// bounds: inclusive on the south and west edges, exclusive on the north and
// east edges. Adjacent boxes sharing an edge therefore never both claim a
// point on that edge.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat < b.North && lon >= b.West && lon < b.East
}

// IsDegenerate reports whether the box has zero or negative extent in either
// dimension.
func (b BoundingBox) IsDegenerate() bool {
	return b.Width() <= 0 || b.Height() <= 0
}
