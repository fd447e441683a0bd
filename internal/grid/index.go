// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/situs/internal/models"
)

// RegionSpec describes one region to partition.
type RegionSpec struct {
	Name      string
	Bounds    models.BoundingBox
	CellSizeM float64
}

// RegionInfo summarizes a built region for API consumers.
type RegionInfo struct {
	Name      string             `json:"name"`
	Bounds    models.BoundingBox `json:"bounds"`
	CellSizeM float64            `json:"cell_size_m"`
	CellCount int                `json:"cell_count"`
	Rows      int                `json:"rows"`
	Cols      int                `json:"cols"`
}

// regionLattice holds one region's frozen partition plus the step metadata
// that makes point assignment O(1) arithmetic instead of a cell scan.
type regionLattice struct {
	name      string
	bounds    models.BoundingBox
	cellSizeM float64
	latStep   float64
	lonStep   float64
	rows      int
	cols      int
	cells     []models.GridCell // row-major
}

// Index is the immutable, process-wide set of grid partitions. Build it once
// at startup with BuildIndex and share it read-only; it is safe for
// concurrent use without locking because nothing mutates after construction.
type Index struct {
	lattices map[string]*regionLattice
	byID     map[string]models.GridCell
	names    []string // sorted for deterministic iteration
}

// BuildIndex partitions and verifies every region spec and freezes the result.
//
// Errors: models.ErrConfiguration for duplicate/invalid specs (including cell
// size and rectangle validation from Partition), models.ErrDataIntegrity when
// a produced partition fails verification. Both are fatal at startup.
func BuildIndex(specs []RegionSpec) (*Index, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no regions configured", models.ErrConfiguration)
	}

	idx := &Index{
		lattices: make(map[string]*regionLattice, len(specs)),
		byID:     make(map[string]models.GridCell),
	}

	for _, spec := range specs {
		if _, dup := idx.lattices[spec.Name]; dup {
			return nil, fmt.Errorf("%w: region %q configured twice", models.ErrConfiguration, spec.Name)
		}

		cellSize := spec.CellSizeM
		if cellSize == 0 {
			cellSize = DefaultCellSizeM
		}

		cells, err := Partition(spec.Name, spec.Bounds, cellSize)
		if err != nil {
			return nil, err
		}
		if err := VerifyPartition(spec.Name, spec.Bounds, cells); err != nil {
			return nil, err
		}

		latStep, lonStep, err := steps(spec.Name, spec.Bounds, cellSize)
		if err != nil {
			return nil, err
		}

		lat := &regionLattice{
			name:      spec.Name,
			bounds:    spec.Bounds,
			cellSizeM: cellSize,
			latStep:   latStep,
			lonStep:   lonStep,
			rows:      cells[len(cells)-1].Row + 1,
			cols:      cells[len(cells)-1].Col + 1,
			cells:     cells,
		}
		idx.lattices[spec.Name] = lat
		idx.names = append(idx.names, spec.Name)

		for _, c := range cells {
			if _, dup := idx.byID[c.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate cell ID %q across regions", models.ErrDataIntegrity, c.ID)
			}
			idx.byID[c.ID] = c
		}
	}

	sort.Strings(idx.names)
	return idx, nil
}

// Assign maps a coordinate to the unique cell containing it. The boolean is
// false when the point lies outside every configured region, which is a
// loggable outcome rather than an error.
//
// Determinism: for a fixed index, the same coordinate always resolves to the
// same cell. Regions are probed in sorted name order, so even (misconfigured)
// overlapping regions resolve deterministically.
func (idx *Index) Assign(lat, lon float64) (models.GridCell, bool) {
	for _, name := range idx.names {
		l := idx.lattices[name]
		if !l.bounds.Contains(lat, lon) {
			continue
		}
		if cell, ok := l.locate(lat, lon); ok {
			return cell, true
		}
	}
	return models.GridCell{}, false
}

// locate computes the row/col arithmetically and falls back to checking the
// immediate neighbors, which absorbs floating-point drift at clamped edge
// cells.
func (l *regionLattice) locate(lat, lon float64) (models.GridCell, bool) {
	row := int(math.Floor((lat - l.bounds.South) / l.latStep))
	col := int(math.Floor((lon - l.bounds.West) / l.lonStep))
	if row >= l.rows {
		row = l.rows - 1
	}
	if col >= l.cols {
		col = l.cols - 1
	}
	if row < 0 || col < 0 {
		return models.GridCell{}, false
	}

	if c := l.cellAt(row, col); c.Contains(lat, lon) {
		return c, true
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, cidx := row+dr, col+dc
			if (dr == 0 && dc == 0) || r < 0 || r >= l.rows || cidx < 0 || cidx >= l.cols {
				continue
			}
			if c := l.cellAt(r, cidx); c.Contains(lat, lon) {
				return c, true
			}
		}
	}
	return models.GridCell{}, false
}

func (l *regionLattice) cellAt(row, col int) models.GridCell {
	return l.cells[row*l.cols+col]
}

// CellByID resolves a deterministic cell ID to its cell.
func (idx *Index) CellByID(id string) (models.GridCell, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// RegionCells returns a copy of the region's cells in row-major order, or
// models.ErrNotFound for an unknown region.
func (idx *Index) RegionCells(region string) ([]models.GridCell, error) {
	l, ok := idx.lattices[region]
	if !ok {
		return nil, fmt.Errorf("%w: region %q", models.ErrNotFound, region)
	}
	out := make([]models.GridCell, len(l.cells))
	copy(out, l.cells)
	return out, nil
}

// RegionBounds returns the region's bounding rectangle.
func (idx *Index) RegionBounds(region string) (models.BoundingBox, error) {
	l, ok := idx.lattices[region]
	if !ok {
		return models.BoundingBox{}, fmt.Errorf("%w: region %q", models.ErrNotFound, region)
	}
	return l.bounds, nil
}

// HasRegion reports whether the region is configured.
func (idx *Index) HasRegion(region string) bool {
	_, ok := idx.lattices[region]
	return ok
}

// RegionNames returns the configured region names in sorted order.
func (idx *Index) RegionNames() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// Describe summarizes every region for the regions endpoint.
func (idx *Index) Describe() []RegionInfo {
	infos := make([]RegionInfo, 0, len(idx.names))
	for _, name := range idx.names {
		l := idx.lattices[name]
		infos = append(infos, RegionInfo{
			Name:      l.name,
			Bounds:    l.bounds,
			CellSizeM: l.cellSizeM,
			CellCount: len(l.cells),
			Rows:      l.rows,
			Cols:      l.cols,
		})
	}
	return infos
}

// CellCount returns the total number of cells across all regions.
func (idx *Index) CellCount() int {
	return len(idx.byID)
}
