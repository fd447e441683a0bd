// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package grid

import (
	"fmt"
	"math"

	"github.com/tomtom215/situs/internal/models"
)

// Cell size limits in meters. Sizes below 50 m produce cells smaller than the
// positional accuracy of the upstream data; sizes above 150 m blur distinct
// micro-markets into one cell.
const (
	MinCellSizeM     = 50.0
	MaxCellSizeM     = 150.0
	DefaultCellSizeM = 100.0
)

// maxCellsPerRegion caps a single region's lattice. A misconfigured bounding
// box (a whole country at 50 m cells) would otherwise exhaust memory before
// any scoring happens.
const maxCellsPerRegion = 250_000

// metersPerDegreeLat is the approximate length of one degree of latitude.
// Longitude degrees shrink with cos(latitude); the partitioner applies that
// factor at the region's center latitude.
const metersPerDegreeLat = 111_320.0

// latticeEps is the tolerance for floating-point drift when verifying that
// neighboring cell edges meet exactly.
const latticeEps = 1e-9

// Partition splits the region's bounding rectangle into a row-major lattice
// of cells roughly cellSizeM meters on a side. The last row and column clamp
// to the region edge, so the union of all cells covers the rectangle exactly.
//
// The result is deterministic: identical inputs produce identical cells and
// identical IDs ("{region}-{row:03d}-{col:03d}").
//
// Returns models.ErrConfiguration for an empty region name, a cell size
// outside [MinCellSizeM, MaxCellSizeM], a degenerate rectangle, a region too
// close to a pole, or a lattice exceeding maxCellsPerRegion.
func Partition(region string, bounds models.BoundingBox, cellSizeM float64) ([]models.GridCell, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: region name is empty", models.ErrConfiguration)
	}
	if cellSizeM < MinCellSizeM || cellSizeM > MaxCellSizeM {
		return nil, fmt.Errorf("%w: cell size %.1fm outside [%.0f, %.0f]",
			models.ErrConfiguration, cellSizeM, MinCellSizeM, MaxCellSizeM)
	}
	if bounds.IsDegenerate() {
		return nil, fmt.Errorf("%w: region %q has a degenerate bounding rectangle", models.ErrConfiguration, region)
	}

	latStep, lonStep, err := steps(region, bounds, cellSizeM)
	if err != nil {
		return nil, err
	}

	rows := int(math.Ceil(bounds.Height() / latStep))
	cols := int(math.Ceil(bounds.Width() / lonStep))
	// Ceil on a ratio that is an exact multiple can round up on floating-point
	// noise and emit a zero-height trailing row; drop any row or column that
	// would start at (or past) the far edge.
	for rows > 1 && bounds.South+float64(rows-1)*latStep >= bounds.North-latticeEps {
		rows--
	}
	for cols > 1 && bounds.West+float64(cols-1)*lonStep >= bounds.East-latticeEps {
		cols--
	}
	if rows*cols > maxCellsPerRegion {
		return nil, fmt.Errorf("%w: region %q would produce %d cells (max %d)",
			models.ErrConfiguration, region, rows*cols, maxCellsPerRegion)
	}

	cells := make([]models.GridCell, 0, rows*cols)
	for row := 0; row < rows; row++ {
		south := bounds.South + float64(row)*latStep
		north := south + latStep
		if row == rows-1 || north > bounds.North {
			north = bounds.North
		}
		for col := 0; col < cols; col++ {
			west := bounds.West + float64(col)*lonStep
			east := west + lonStep
			if col == cols-1 || east > bounds.East {
				east = bounds.East
			}

			cb := models.BoundingBox{North: north, South: south, East: east, West: west}
			cells = append(cells, models.GridCell{
				ID:     models.GridCellID(region, row, col),
				Region: region,
				Row:    row,
				Col:    col,
				Center: cb.Center(),
				Bounds: cb,
				AreaM2: areaM2(cb),
			})
		}
	}

	return cells, nil
}

// steps converts the target cell size to lat/lon degree steps using the
// latitude-dependent scale factor at the region center.
func steps(region string, bounds models.BoundingBox, cellSizeM float64) (latStep, lonStep float64, err error) {
	centerLat := bounds.Center().Lat
	cosLat := math.Cos(centerLat * math.Pi / 180)
	if cosLat < 0.02 { // within ~1 degree of a pole
		return 0, 0, fmt.Errorf("%w: region %q is too close to a pole for a rectangular lattice",
			models.ErrConfiguration, region)
	}
	latStep = cellSizeM / metersPerDegreeLat
	lonStep = cellSizeM / (metersPerDegreeLat * cosLat)
	return latStep, lonStep, nil
}

// areaM2 approximates the cell's area from its degree extents at the cell's
// own center latitude. Clamped edge cells therefore report their true,
// smaller area.
func areaM2(b models.BoundingBox) float64 {
	heightM := b.Height() * metersPerDegreeLat
	widthM := b.Width() * metersPerDegreeLat * math.Cos(b.Center().Lat*math.Pi/180)
	return heightM * widthM
}

// VerifyPartition checks that cells form a true partition of the region
// rectangle: unique row/col slots, a full rows x cols lattice, neighboring
// edges meeting exactly, and outer edges flush with the region bounds. Any
// violation returns models.ErrDataIntegrity, which is fatal at load because
// every downstream score assumes each point maps to at most one cell.
func VerifyPartition(region string, bounds models.BoundingBox, cells []models.GridCell) error {
	if len(cells) == 0 {
		return fmt.Errorf("%w: region %q has an empty partition", models.ErrDataIntegrity, region)
	}

	type slot struct{ row, col int }
	bySlot := make(map[slot]models.GridCell, len(cells))
	maxRow, maxCol := 0, 0
	for _, c := range cells {
		if c.Region != region {
			return fmt.Errorf("%w: cell %s belongs to region %q, expected %q",
				models.ErrDataIntegrity, c.ID, c.Region, region)
		}
		if c.Bounds.IsDegenerate() {
			return fmt.Errorf("%w: cell %s has degenerate bounds", models.ErrDataIntegrity, c.ID)
		}
		s := slot{c.Row, c.Col}
		if _, dup := bySlot[s]; dup {
			return fmt.Errorf("%w: duplicate cell at row %d col %d in region %q",
				models.ErrDataIntegrity, c.Row, c.Col, region)
		}
		bySlot[s] = c
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}

	if len(cells) != (maxRow+1)*(maxCol+1) {
		return fmt.Errorf("%w: region %q lattice is incomplete: %d cells for %dx%d grid",
			models.ErrDataIntegrity, region, len(cells), maxRow+1, maxCol+1)
	}

	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			c, ok := bySlot[slot{row, col}]
			if !ok {
				return fmt.Errorf("%w: region %q is missing cell at row %d col %d",
					models.ErrDataIntegrity, region, row, col)
			}

			// Outer edges must be flush with the region rectangle.
			if row == 0 && math.Abs(c.Bounds.South-bounds.South) > latticeEps {
				return gapErr(region, c.ID, "south edge not flush with region")
			}
			if row == maxRow && math.Abs(c.Bounds.North-bounds.North) > latticeEps {
				return gapErr(region, c.ID, "north edge not flush with region")
			}
			if col == 0 && math.Abs(c.Bounds.West-bounds.West) > latticeEps {
				return gapErr(region, c.ID, "west edge not flush with region")
			}
			if col == maxCol && math.Abs(c.Bounds.East-bounds.East) > latticeEps {
				return gapErr(region, c.ID, "east edge not flush with region")
			}

			// Interior edges must meet the previous row/column exactly:
			// a mismatch in either direction is a gap or an overlap.
			if row > 0 {
				below := bySlot[slot{row - 1, col}]
				if math.Abs(c.Bounds.South-below.Bounds.North) > latticeEps {
					return gapErr(region, c.ID, "south edge does not meet the row below")
				}
			}
			if col > 0 {
				left := bySlot[slot{row, col - 1}]
				if math.Abs(c.Bounds.West-left.Bounds.East) > latticeEps {
					return gapErr(region, c.ID, "west edge does not meet the column to the left")
				}
			}

			// Each cell must claim its own center.
			if !c.Contains(c.Center.Lat, c.Center.Lon) {
				return gapErr(region, c.ID, "cell does not contain its own center")
			}
		}
	}

	return nil
}

func gapErr(region, cellID, detail string) error {
	return fmt.Errorf("%w: region %q cell %s: %s", models.ErrDataIntegrity, region, cellID, detail)
}
