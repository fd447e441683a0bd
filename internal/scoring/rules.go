// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/situs/internal/models"
)

// TableKind selects which evaluation path a rule table serves.
type TableKind string

const (
	// KindGrid tables score normalized per-grid metrics during sweeps.
	KindGrid TableKind = "grid"
	// KindPoint tables score a business environment vector for point queries.
	KindPoint TableKind = "point"
)

// Valid reports whether k is a recognized table kind.
func (k TableKind) Valid() bool { return k == KindGrid || k == KindPoint }

// DefaultBase is the starting score of a threshold table. Tables may declare
// their own base; weighted-formula tables start at zero so the weights alone
// determine the score.
const DefaultBase = 0.5

// Operator compares a feature value against a rule's operand.
type Operator string

// Predicate operators. "present"/"absent" test feature definedness and
// ignore the operand; every other operator evaluates to false when the
// feature is undefined.
const (
	OpGT      Operator = "gt"
	OpGE      Operator = "ge"
	OpLT      Operator = "lt"
	OpLE      Operator = "le"
	OpEQ      Operator = "eq"
	OpBetween Operator = "between"
	OpPresent Operator = "present"
	OpAbsent  Operator = "absent"
)

// eqEps is the tolerance for the "eq" operator, which otherwise would be
// useless on derived floating-point features.
const eqEps = 1e-9

// Valid reports whether op is a recognized operator.
func (op Operator) Valid() bool {
	switch op {
	case OpGT, OpGE, OpLT, OpLE, OpEQ, OpBetween, OpPresent, OpAbsent:
		return true
	}
	return false
}

// Predicate is one condition over a named feature.
type Predicate struct {
	Feature string   `json:"feature" koanf:"feature"`
	Op      Operator `json:"op" koanf:"op"`
	Value   float64  `json:"value" koanf:"value"`
	// High is the upper bound for the "between" operator (Value <= x <= High).
	High float64 `json:"high,omitempty" koanf:"high"`
}

// eval returns whether the predicate holds for the source.
func (p Predicate) eval(src FeatureSource) bool {
	v, present := src.Feature(p.Feature)

	switch p.Op {
	case OpPresent:
		return present
	case OpAbsent:
		return !present
	}
	if !present {
		return false
	}

	switch p.Op {
	case OpGT:
		return v > p.Value
	case OpGE:
		return v >= p.Value
	case OpLT:
		return v < p.Value
	case OpLE:
		return v <= p.Value
	case OpEQ:
		return math.Abs(v-p.Value) <= eqEps
	case OpBetween:
		return v >= p.Value && v <= p.High
	}
	return false
}

// Rule is one entry of a rule table.
//
// When is optional; a nil predicate always applies. ScaleBy is optional: when
// set, the effective delta is Delta multiplied by the named feature's value
// (undefined feature means the rule contributes nothing); when empty, the
// effective delta is Delta itself. Weighted rules are meant for normalized
// [0,1] features — the per-step clamp still bounds any misuse.
type Rule struct {
	Name    string     `json:"name" koanf:"name"`
	When    *Predicate `json:"when,omitempty" koanf:"when"`
	Delta   float64    `json:"delta" koanf:"delta"`
	ScaleBy string     `json:"scale_by,omitempty" koanf:"scale_by"`
	Reason  string     `json:"reason" koanf:"reason"`
}

// RuleTable is the ordered, declarative rule set for one (kind, category).
type RuleTable struct {
	Category string    `json:"category" koanf:"category"`
	Kind     TableKind `json:"kind" koanf:"kind"`
	Base     float64   `json:"base" koanf:"base"`
	Rules    []Rule    `json:"rules" koanf:"rules"`
}

// TableInfo summarizes a rule table for the categories endpoint.
type TableInfo struct {
	Category  string    `json:"category"`
	Kind      TableKind `json:"kind"`
	Base      float64   `json:"base"`
	RuleCount int       `json:"rule_count"`
}

// Validate checks the table's declarative integrity: known kind, base in
// [0,1], unique non-empty rule names, deltas in [-1,1], known operators,
// well-formed "between" bounds, and resolvable feature names for both
// predicates and scale factors. All violations are models.ErrConfiguration.
func (t RuleTable) Validate() error {
	if t.Category == "" {
		return fmt.Errorf("%w: rule table with empty category", models.ErrConfiguration)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: rule table %q has unknown kind %q", models.ErrConfiguration, t.Category, t.Kind)
	}
	if t.Base < 0 || t.Base > 1 {
		return fmt.Errorf("%w: rule table %s/%s base %v outside [0,1]", models.ErrConfiguration, t.Kind, t.Category, t.Base)
	}
	if len(t.Rules) == 0 {
		return fmt.Errorf("%w: rule table %s/%s has no rules", models.ErrConfiguration, t.Kind, t.Category)
	}

	seen := make(map[string]struct{}, len(t.Rules))
	for i, r := range t.Rules {
		if r.Name == "" {
			return fmt.Errorf("%w: rule table %s/%s rule %d has no name", models.ErrConfiguration, t.Kind, t.Category, i)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: rule table %s/%s has duplicate rule %q", models.ErrConfiguration, t.Kind, t.Category, r.Name)
		}
		seen[r.Name] = struct{}{}

		if r.Delta < -1 || r.Delta > 1 {
			return fmt.Errorf("%w: rule %s/%s/%s delta %v outside [-1,1]", models.ErrConfiguration, t.Kind, t.Category, r.Name, r.Delta)
		}
		if r.Reason == "" {
			return fmt.Errorf("%w: rule %s/%s/%s has no reason", models.ErrConfiguration, t.Kind, t.Category, r.Name)
		}
		if r.When != nil {
			if r.When.Feature == "" {
				return fmt.Errorf("%w: rule %s/%s/%s predicate has no feature", models.ErrConfiguration, t.Kind, t.Category, r.Name)
			}
			if !KnownFeature(t.Kind, r.When.Feature) {
				return fmt.Errorf("%w: rule %s/%s/%s references unknown feature %q", models.ErrConfiguration, t.Kind, t.Category, r.Name, r.When.Feature)
			}
			if !r.When.Op.Valid() {
				return fmt.Errorf("%w: rule %s/%s/%s has unknown operator %q", models.ErrConfiguration, t.Kind, t.Category, r.Name, r.When.Op)
			}
			if r.When.Op == OpBetween && r.When.High < r.When.Value {
				return fmt.Errorf("%w: rule %s/%s/%s between bounds inverted", models.ErrConfiguration, t.Kind, t.Category, r.Name)
			}
		}
		if r.ScaleBy != "" && !KnownFeature(t.Kind, r.ScaleBy) {
			return fmt.Errorf("%w: rule %s/%s/%s scales by unknown feature %q", models.ErrConfiguration, t.Kind, t.Category, r.Name, r.ScaleBy)
		}
	}
	return nil
}

// Engine evaluates rule tables. It holds every table for the process
// lifetime and is immutable after construction, so concurrent sweeps share it
// without locking.
type Engine struct {
	tables map[string]RuleTable
}

func tableKey(kind TableKind, category string) string { return string(kind) + "/" + category }

// NewEngine validates all tables and freezes them into an engine. A duplicate
// (kind, category) pair is a configuration error.
func NewEngine(tables []RuleTable) (*Engine, error) {
	e := &Engine{tables: make(map[string]RuleTable, len(tables))}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		key := tableKey(t.Kind, t.Category)
		if _, dup := e.tables[key]; dup {
			return nil, fmt.Errorf("%w: duplicate rule table for %s/%s", models.ErrConfiguration, t.Kind, t.Category)
		}
		e.tables[key] = t
	}
	if len(e.tables) == 0 {
		return nil, fmt.Errorf("%w: no rule tables configured", models.ErrConfiguration)
	}
	return e, nil
}

// Evaluate runs the (kind, category) table against the feature source.
//
// Evaluation starts from the table's base score and applies every rule whose
// predicate holds, clamping the running total to [0,1] after each step so a
// single pathological delta cannot escape the bounds even before later rules
// run. Every applied rule lands in the trace in table order with the delta it
// actually contributed; at the saturation boundary a rule is still traced
// even though the clamp erases its numeric effect.
//
// Returns models.ErrNotFound when no table exists for the pair.
func (e *Engine) Evaluate(kind TableKind, category string, src FeatureSource) (models.CategoryScore, error) {
	table, ok := e.tables[tableKey(kind, category)]
	if !ok {
		return models.CategoryScore{}, fmt.Errorf("%w: no %s rule table for category %q", models.ErrNotFound, kind, category)
	}

	score := clamp01(table.Base)
	trace := make([]models.RuleTraceEntry, 0, len(table.Rules))
	var positives, concerns []string

	for _, rule := range table.Rules {
		if rule.When != nil && !rule.When.eval(src) {
			continue
		}

		delta := rule.Delta
		if rule.ScaleBy != "" {
			scale, present := src.Feature(rule.ScaleBy)
			if !present {
				continue
			}
			delta *= scale
		}

		score = clamp01(score + delta)
		trace = append(trace, models.RuleTraceEntry{Rule: rule.Name, Delta: delta, Reason: rule.Reason})
		if delta >= 0 {
			positives = append(positives, rule.Reason)
		} else {
			concerns = append(concerns, rule.Reason)
		}
	}

	return models.CategoryScore{
		Score:           score,
		PositiveFactors: positives,
		Concerns:        concerns,
		RuleTrace:       trace,
	}, nil
}

// HasTable reports whether a table exists for the pair.
func (e *Engine) HasTable(kind TableKind, category string) bool {
	_, ok := e.tables[tableKey(kind, category)]
	return ok
}

// Categories returns the sorted category names that have a table of the kind.
func (e *Engine) Categories(kind TableKind) []string {
	var out []string
	for _, t := range e.tables {
		if t.Kind == kind {
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Describe summarizes every table, sorted by kind then category.
func (e *Engine) Describe() []TableInfo {
	out := make([]TableInfo, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, TableInfo{Category: t.Category, Kind: t.Kind, Base: t.Base, RuleCount: len(t.Rules)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
