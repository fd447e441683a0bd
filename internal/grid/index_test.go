// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package grid

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := BuildIndex([]RegionSpec{
		{Name: "karachi-south", Bounds: karachiBounds(3, 3), CellSizeM: DefaultCellSizeM},
	})
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	return idx
}

func TestBuildIndexErrors(t *testing.T) {
	t.Parallel()

	if _, err := BuildIndex(nil); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("BuildIndex(nil) error = %v, want ErrConfiguration", err)
	}

	dup := []RegionSpec{
		{Name: "r", Bounds: karachiBounds(2, 2)},
		{Name: "r", Bounds: karachiBounds(2, 2)},
	}
	if _, err := BuildIndex(dup); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("duplicate region error = %v, want ErrConfiguration", err)
	}

	bad := []RegionSpec{{Name: "r", Bounds: karachiBounds(2, 2), CellSizeM: 10}}
	if _, err := BuildIndex(bad); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("bad cell size error = %v, want ErrConfiguration", err)
	}
}

func TestBuildIndexDefaultsCellSize(t *testing.T) {
	t.Parallel()

	idx, err := BuildIndex([]RegionSpec{{Name: "r", Bounds: karachiBounds(2, 2)}})
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	infos := idx.Describe()
	if len(infos) != 1 {
		t.Fatalf("Describe returned %d regions, want 1", len(infos))
	}
	if infos[0].CellSizeM != DefaultCellSizeM {
		t.Errorf("CellSizeM = %v, want default %v", infos[0].CellSizeM, DefaultCellSizeM)
	}
}

func TestAssignDeterministicInsideCells(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)
	cells, err := idx.RegionCells("karachi-south")
	if err != nil {
		t.Fatalf("RegionCells failed: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		c := cells[rng.Intn(len(cells))]
		lat := c.Bounds.South + rng.Float64()*c.Bounds.Height()*0.999
		lon := c.Bounds.West + rng.Float64()*c.Bounds.Width()*0.999

		got, ok := idx.Assign(lat, lon)
		if !ok {
			t.Fatalf("Assign(%v, %v) found no cell, expected %s", lat, lon, c.ID)
		}
		if got.ID != c.ID {
			t.Fatalf("Assign(%v, %v) = %s, want %s", lat, lon, got.ID, c.ID)
		}

		// Idempotent: a second call yields the identical cell.
		again, ok := idx.Assign(lat, lon)
		if !ok || again.ID != got.ID {
			t.Fatalf("Assign is not deterministic for (%v, %v): %s vs %s", lat, lon, got.ID, again.ID)
		}
	}
}

func TestAssignSharedEdgeBelongsToOneCell(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)
	cells, err := idx.RegionCells("karachi-south")
	if err != nil {
		t.Fatalf("RegionCells failed: %v", err)
	}

	// The east edge of cell (0,0) is the west edge of cell (0,1): the point
	// belongs to (0,1) under half-open bounds.
	var c00, c01 models.GridCell
	for _, c := range cells {
		switch {
		case c.Row == 0 && c.Col == 0:
			c00 = c
		case c.Row == 0 && c.Col == 1:
			c01 = c
		}
	}

	lat := c00.Center.Lat
	lon := c00.Bounds.East

	got, ok := idx.Assign(lat, lon)
	if !ok {
		t.Fatalf("Assign on shared edge found no cell")
	}
	if got.ID != c01.ID {
		t.Errorf("shared edge point assigned to %s, want %s", got.ID, c01.ID)
	}

	// The region's own south-west corner belongs to cell (0,0).
	got, ok = idx.Assign(c00.Bounds.South, c00.Bounds.West)
	if !ok || got.ID != c00.ID {
		t.Errorf("region corner assigned to %v (ok=%v), want %s", got.ID, ok, c00.ID)
	}
}

func TestAssignOutsideAllCells(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)
	bounds, err := idx.RegionBounds("karachi-south")
	if err != nil {
		t.Fatalf("RegionBounds failed: %v", err)
	}

	tests := []struct {
		name string
		lat  float64
		lon  float64
	}{
		{"far away", 51.5, -0.12},
		{"just south", bounds.South - 0.0001, bounds.West},
		{"just west", bounds.South, bounds.West - 0.0001},
		{"region north edge is exclusive", bounds.North, bounds.West},
		{"region east edge is exclusive", bounds.South, bounds.East},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cell, ok := idx.Assign(tt.lat, tt.lon); ok {
				t.Errorf("Assign(%v, %v) = %s, want no assignment", tt.lat, tt.lon, cell.ID)
			}
		})
	}
}

func TestIndexLookups(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	cell, ok := idx.CellByID("karachi-south-001-002")
	if !ok {
		t.Fatal("CellByID failed for a cell that must exist")
	}
	if cell.Row != 1 || cell.Col != 2 {
		t.Errorf("CellByID returned row %d col %d, want 1, 2", cell.Row, cell.Col)
	}

	if _, ok := idx.CellByID("karachi-south-099-099"); ok {
		t.Error("CellByID returned a cell for an unknown ID")
	}

	if _, err := idx.RegionCells("atlantis"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("RegionCells(atlantis) error = %v, want ErrNotFound", err)
	}
	if _, err := idx.RegionBounds("atlantis"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("RegionBounds(atlantis) error = %v, want ErrNotFound", err)
	}
	if idx.HasRegion("atlantis") {
		t.Error("HasRegion(atlantis) = true")
	}
	if !idx.HasRegion("karachi-south") {
		t.Error("HasRegion(karachi-south) = false")
	}
	if got := idx.RegionNames(); len(got) != 1 || got[0] != "karachi-south" {
		t.Errorf("RegionNames() = %v", got)
	}
	if idx.CellCount() == 0 {
		t.Error("CellCount() = 0")
	}
}

// TestRegionCellsReturnsCopy guards the index's immutability: callers must
// not be able to corrupt the shared partition through the returned slice.
func TestRegionCellsReturnsCopy(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)
	cells, err := idx.RegionCells("karachi-south")
	if err != nil {
		t.Fatalf("RegionCells failed: %v", err)
	}

	original := cells[0].ID
	cells[0].ID = "tampered"

	fresh, err := idx.RegionCells("karachi-south")
	if err != nil {
		t.Fatalf("RegionCells failed: %v", err)
	}
	if fresh[0].ID != original {
		t.Errorf("index cell mutated through returned slice: %q", fresh[0].ID)
	}
}
