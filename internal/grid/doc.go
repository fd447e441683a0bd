// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package grid partitions named regions into regular rectangular lattices and
// assigns raw coordinates to lattice cells.
//
// A region's partition is built once from configuration, verified to be a
// true partition (no overlaps, no gaps), and frozen into an Index. The Index
// is an explicitly constructed, immutable value passed to consumers rather
// than process-global state, which keeps sweeps lock-free and tests isolated.
//
// Assignment uses half-open cell bounds (inclusive south/west, exclusive
// north/east) so a point on a shared edge belongs to exactly one cell. Points
// outside every region resolve to "no cell", which is a valid outcome rather
// than an error.
package grid
