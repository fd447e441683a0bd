// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

func TestEvaluateGridFormulaWorkedExample(t *testing.T) {
	t.Parallel()

	tables, err := DefaultTables([]string{"cafe"}, DefaultGridWeights())
	if err != nil {
		t.Fatalf("DefaultTables() error = %v", err)
	}
	engine, err := NewEngine(tables)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	// An empty cell in a region whose busiest peers hold 4 businesses,
	// 38 Instagram posts, and 50 Reddit posts.
	m := models.GridMetrics{
		GridID:        "karachi-001-002",
		Category:      "cafe",
		BusinessCount: 0,
		SignalCounts:  map[string]int{"instagram": 28, "reddit": 47},
		SupplyNorm:    0,
		DemandNorms:   map[string]float64{"instagram": 28.0 / 38.0, "reddit": 47.0 / 50.0},
	}

	score, err := engine.Evaluate(KindGrid, "cafe", MetricsFeatures{Metrics: m})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if math.Abs(score.Score-0.9132) > 1e-3 {
		t.Errorf("Evaluate() score = %v, want 0.9132 within 1e-3", score.Score)
	}
	if len(score.RuleTrace) != 3 {
		t.Fatalf("Evaluate() trace length = %d, want 3", len(score.RuleTrace))
	}
	if score.RuleTrace[0].Rule != "supply_headroom" {
		t.Errorf("trace[0].Rule = %q, want supply_headroom", score.RuleTrace[0].Rule)
	}
	if math.Abs(score.RuleTrace[0].Delta-0.40) > 1e-9 {
		t.Errorf("supply headroom delta = %v, want 0.40 for an empty cell", score.RuleTrace[0].Delta)
	}
	if len(score.Concerns) != 0 {
		t.Errorf("Concerns = %v, want none for all-positive weighted rules", score.Concerns)
	}
}

func TestEvaluateClampsAfterEveryStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rules     []Rule
		wantScore float64
		wantTrace int
	}{
		{
			// 0.5+0.9 clamps to 1.0, +0.2 is erased at the boundary but
			// still traced, -0.3 then pulls back from 1.0, not from 1.6.
			name: "positive saturation",
			rules: []Rule{
				{Name: "surge", Delta: 0.9, Reason: "surge"},
				{Name: "echo", Delta: 0.2, Reason: "echo"},
				{Name: "drag", Delta: -0.3, Reason: "drag"},
			},
			wantScore: 0.7,
			wantTrace: 3,
		},
		{
			name: "negative saturation",
			rules: []Rule{
				{Name: "crash", Delta: -0.9, Reason: "crash"},
				{Name: "lift", Delta: 0.2, Reason: "lift"},
			},
			wantScore: 0.2,
			wantTrace: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, err := NewEngine([]RuleTable{{
				Category: "cafe",
				Kind:     KindPoint,
				Base:     DefaultBase,
				Rules:    tt.rules,
			}})
			if err != nil {
				t.Fatalf("NewEngine() error = %v", err)
			}

			score, err := engine.Evaluate(KindPoint, "cafe", mapSource{})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if math.Abs(score.Score-tt.wantScore) > 1e-9 {
				t.Errorf("Evaluate() score = %v, want %v", score.Score, tt.wantScore)
			}
			if len(score.RuleTrace) != tt.wantTrace {
				t.Errorf("trace length = %d, want %d", len(score.RuleTrace), tt.wantTrace)
			}
		})
	}
}

func TestEvaluateTraceFollowsTableOrder(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]RuleTable{{
		Category: "gym",
		Kind:     KindPoint,
		Base:     DefaultBase,
		Rules: []Rule{
			{Name: "third", When: &Predicate{Feature: "density_juice_bar", Op: OpPresent}, Delta: 0.01, Reason: "juice bars nearby"},
			{Name: "skipped", When: &Predicate{Feature: "nearest_stadium_km", Op: OpPresent}, Delta: 0.5, Reason: "never"},
			{Name: "first", When: &Predicate{Feature: "competitor_density", Op: OpPresent}, Delta: -0.02, Reason: "existing gyms"},
		},
	}})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	score, err := engine.Evaluate(KindPoint, "gym", mapSource{"competitor_density": 1, "density_juice_bar": 1})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	wantOrder := []string{"third", "first"}
	if len(score.RuleTrace) != len(wantOrder) {
		t.Fatalf("trace length = %d, want %d", len(score.RuleTrace), len(wantOrder))
	}
	for i, want := range wantOrder {
		if score.RuleTrace[i].Rule != want {
			t.Errorf("trace[%d].Rule = %q, want %q", i, score.RuleTrace[i].Rule, want)
		}
	}
	if len(score.PositiveFactors) != 1 || score.PositiveFactors[0] != "juice bars nearby" {
		t.Errorf("PositiveFactors = %v, want the juice bar reason", score.PositiveFactors)
	}
	if len(score.Concerns) != 1 || score.Concerns[0] != "existing gyms" {
		t.Errorf("Concerns = %v, want the competitor reason", score.Concerns)
	}
}

func TestEvaluateScaledRuleSkipsUndefinedFeature(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]RuleTable{{
		Category: "cafe",
		Kind:     KindGrid,
		Base:     0,
		Rules: []Rule{
			{Name: "demand", Delta: 0.5, ScaleBy: "demand_instagram_norm", Reason: "demand"},
			{Name: "floor", Delta: 0.1, Reason: "floor"},
		},
	}})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	score, err := engine.Evaluate(KindGrid, "cafe", mapSource{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(score.Score-0.1) > 1e-9 {
		t.Errorf("Evaluate() score = %v, want 0.1 with the scaled rule skipped", score.Score)
	}
	if len(score.RuleTrace) != 1 || score.RuleTrace[0].Rule != "floor" {
		t.Errorf("trace = %+v, want only the floor rule", score.RuleTrace)
	}
}

func TestEvaluateScaledRuleWeightsDelta(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]RuleTable{{
		Category: "cafe",
		Kind:     KindGrid,
		Base:     0,
		Rules: []Rule{
			{Name: "demand", Delta: 0.5, ScaleBy: "demand_instagram_norm", Reason: "demand"},
		},
	}})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	score, err := engine.Evaluate(KindGrid, "cafe", mapSource{"demand_instagram_norm": 0.6})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(score.Score-0.3) > 1e-9 {
		t.Errorf("Evaluate() score = %v, want 0.3 (0.5 * 0.6)", score.Score)
	}
	if math.Abs(score.RuleTrace[0].Delta-0.3) > 1e-9 {
		t.Errorf("trace delta = %v, want the effective delta 0.3", score.RuleTrace[0].Delta)
	}
}

func TestPredicateOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Predicate
		src  mapSource
		want bool
	}{
		{"gt true", Predicate{Feature: "x", Op: OpGT, Value: 1}, mapSource{"x": 2}, true},
		{"gt false at equal", Predicate{Feature: "x", Op: OpGT, Value: 2}, mapSource{"x": 2}, false},
		{"ge true at equal", Predicate{Feature: "x", Op: OpGE, Value: 2}, mapSource{"x": 2}, true},
		{"lt true", Predicate{Feature: "x", Op: OpLT, Value: 3}, mapSource{"x": 2}, true},
		{"le false above", Predicate{Feature: "x", Op: OpLE, Value: 1}, mapSource{"x": 2}, false},
		{"eq exact", Predicate{Feature: "x", Op: OpEQ, Value: 0}, mapSource{"x": 0}, true},
		{"eq within tolerance", Predicate{Feature: "x", Op: OpEQ, Value: 1}, mapSource{"x": 1 + 1e-12}, true},
		{"eq outside tolerance", Predicate{Feature: "x", Op: OpEQ, Value: 1}, mapSource{"x": 1.001}, false},
		{"between inclusive low", Predicate{Feature: "x", Op: OpBetween, Value: 2, High: 4}, mapSource{"x": 2}, true},
		{"between inclusive high", Predicate{Feature: "x", Op: OpBetween, Value: 2, High: 4}, mapSource{"x": 4}, true},
		{"between outside", Predicate{Feature: "x", Op: OpBetween, Value: 2, High: 4}, mapSource{"x": 5}, false},
		{"present on defined zero", Predicate{Feature: "x", Op: OpPresent}, mapSource{"x": 0}, true},
		{"present on undefined", Predicate{Feature: "x", Op: OpPresent}, mapSource{}, false},
		{"absent on undefined", Predicate{Feature: "x", Op: OpAbsent}, mapSource{}, true},
		{"absent on defined", Predicate{Feature: "x", Op: OpAbsent}, mapSource{"x": 0}, false},
		{"comparison on undefined never fires", Predicate{Feature: "x", Op: OpGE, Value: 0}, mapSource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.p.eval(tt.src); got != tt.want {
				t.Errorf("eval(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestEvaluateUnknownTable(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]RuleTable{{
		Category: "cafe",
		Kind:     KindGrid,
		Base:     0,
		Rules:    []Rule{{Name: "r", Delta: 0.1, Reason: "r"}},
	}})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if _, err := engine.Evaluate(KindGrid, "laundromat", mapSource{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Evaluate(unknown category) error = %v, want models.ErrNotFound", err)
	}
	if _, err := engine.Evaluate(KindPoint, "cafe", mapSource{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Evaluate(unknown kind) error = %v, want models.ErrNotFound", err)
	}
}

func TestNewEngineRejectsInvalidTables(t *testing.T) {
	t.Parallel()

	valid := func() RuleTable {
		return RuleTable{
			Category: "cafe",
			Kind:     KindGrid,
			Base:     0.5,
			Rules:    []Rule{{Name: "r", Delta: 0.1, Reason: "reason"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*RuleTable)
	}{
		{"empty category", func(t *RuleTable) { t.Category = "" }},
		{"unknown kind", func(t *RuleTable) { t.Kind = "regional" }},
		{"base above one", func(t *RuleTable) { t.Base = 1.5 }},
		{"base below zero", func(t *RuleTable) { t.Base = -0.1 }},
		{"no rules", func(t *RuleTable) { t.Rules = nil }},
		{"unnamed rule", func(t *RuleTable) { t.Rules[0].Name = "" }},
		{"delta out of range", func(t *RuleTable) { t.Rules[0].Delta = 1.5 }},
		{"missing reason", func(t *RuleTable) { t.Rules[0].Reason = "" }},
		{"duplicate rule name", func(t *RuleTable) {
			t.Rules = append(t.Rules, Rule{Name: "r", Delta: 0.1, Reason: "again"})
		}},
		{"predicate without feature", func(t *RuleTable) {
			t.Rules[0].When = &Predicate{Op: OpGT, Value: 1}
		}},
		{"unknown operator", func(t *RuleTable) {
			t.Rules[0].When = &Predicate{Feature: "supply_norm", Op: "near", Value: 1}
		}},
		{"inverted between bounds", func(t *RuleTable) {
			t.Rules[0].When = &Predicate{Feature: "supply_norm", Op: OpBetween, Value: 4, High: 2}
		}},
		{"unresolvable predicate feature", func(t *RuleTable) {
			t.Rules[0].When = &Predicate{Feature: "supply_nrm", Op: OpGT, Value: 0.5}
		}},
		{"point feature in a grid table", func(t *RuleTable) {
			t.Rules[0].When = &Predicate{Feature: "competitor_density", Op: OpGT, Value: 1}
		}},
		{"unresolvable scale feature", func(t *RuleTable) {
			t.Rules[0].ScaleBy = "demand_nrm"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			table := valid()
			tt.mutate(&table)
			if _, err := NewEngine([]RuleTable{table}); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("NewEngine() error = %v, want models.ErrConfiguration", err)
			}
		})
	}

	t.Run("duplicate kind and category", func(t *testing.T) {
		t.Parallel()
		if _, err := NewEngine([]RuleTable{valid(), valid()}); !errors.Is(err, models.ErrConfiguration) {
			t.Errorf("NewEngine() error = %v, want models.ErrConfiguration", err)
		}
	})

	t.Run("no tables", func(t *testing.T) {
		t.Parallel()
		if _, err := NewEngine(nil); !errors.Is(err, models.ErrConfiguration) {
			t.Errorf("NewEngine() error = %v, want models.ErrConfiguration", err)
		}
	})
}

func TestNewEngineRejectsMisspelledFeature(t *testing.T) {
	t.Parallel()

	// A typo like demand_instagram_nrm can never resolve, so the rule would
	// silently never fire, and paired with the absent operator it would fire
	// on every cell instead. Load must refuse it.
	_, err := NewEngine([]RuleTable{{
		Category: "cafe",
		Kind:     KindGrid,
		Base:     0,
		Rules: []Rule{
			{Name: "ghost_demand", When: &Predicate{Feature: "demand_instagram_nrm", Op: OpAbsent}, Delta: 0.9, Reason: "no instagram demand"},
		},
	}})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("NewEngine() error = %v, want models.ErrConfiguration", err)
	}
}

func TestEngineLookups(t *testing.T) {
	t.Parallel()

	tables, err := DefaultTables([]string{"gym", "cafe"}, DefaultGridWeights())
	if err != nil {
		t.Fatalf("DefaultTables() error = %v", err)
	}
	engine, err := NewEngine(tables)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if !engine.HasTable(KindGrid, "gym") {
		t.Error("HasTable(grid, gym) = false, want true")
	}
	if engine.HasTable(KindPoint, "laundromat") {
		t.Error("HasTable(point, laundromat) = true, want false")
	}

	got := engine.Categories(KindGrid)
	want := []string{"cafe", "gym"}
	if len(got) != len(want) {
		t.Fatalf("Categories(grid) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories(grid)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	infos := engine.Describe()
	if len(infos) != 4 {
		t.Fatalf("Describe() length = %d, want 4", len(infos))
	}
	if infos[0].Kind != KindGrid || infos[0].Category != "cafe" {
		t.Errorf("Describe()[0] = %+v, want grid/cafe first", infos[0])
	}
}
