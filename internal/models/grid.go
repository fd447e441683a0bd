// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

import "fmt"

// GridCell is one rectangular partition unit of a region's lattice.
//
// Cells are immutable: the partitioner builds the full set for a region once
// at startup and every other component shares it read-only. The ID is
// deterministic from (region, row, col) so identical configuration always
// yields identical IDs across processes and restarts.
//
// Invariant: the cells of one region are pairwise non-overlapping and jointly
// cover the region's bounding rectangle. Cell membership uses half-open
// bounds (see BoundingBox.Contains), so a point on a shared edge belongs to
// exactly one cell.
type GridCell struct {
	ID     string      `json:"id"`
	Region string      `json:"region"`
	Row    int         `json:"row"`
	Col    int         `json:"col"`
	Center Coordinate  `json:"center"`
	Bounds BoundingBox `json:"bounds"`
	AreaM2 float64     `json:"area_m2"`
}

// GridCellID formats the deterministic cell identifier for (region, row, col),
// for example "karachi-south-004-017".
func GridCellID(region string, row, col int) string {
	return fmt.Sprintf("%s-%03d-%03d", region, row, col)
}

// Contains reports whether the coordinate falls inside this cell under the
// half-open bounds rule.
func (c GridCell) Contains(lat, lon float64) bool {
	return c.Bounds.Contains(lat, lon)
}
