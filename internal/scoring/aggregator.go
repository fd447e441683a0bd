// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"fmt"
	"time"

	"github.com/tomtom215/situs/internal/models"
)

// DefaultWindowDays is the rolling window applied to social signals when the
// configuration does not override it.
const DefaultWindowDays = 90

// Aggregator folds grid-tagged business records and social signals into raw
// per-cell metrics for one category. It recognizes a fixed channel set so
// every emitted metrics row carries the same zero-filled channel keys, which
// keeps the later normalization pass aligned across cells.
type Aggregator struct {
	channels map[string]struct{}
	ordered  []string
	window   time.Duration
}

// NewAggregator builds an aggregator for the given social channels and
// rolling window. windowDays zero disables time filtering; negative values
// and an empty or duplicated channel list are models.ErrConfiguration.
func NewAggregator(channels []string, windowDays int) (*Aggregator, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: aggregator needs at least one channel", models.ErrConfiguration)
	}
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: aggregator window %d days is negative", models.ErrConfiguration, windowDays)
	}

	set := make(map[string]struct{}, len(channels))
	ordered := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch == "" {
			return nil, fmt.Errorf("%w: aggregator channel list contains an empty name", models.ErrConfiguration)
		}
		if _, dup := set[ch]; dup {
			return nil, fmt.Errorf("%w: aggregator channel %q listed twice", models.ErrConfiguration, ch)
		}
		set[ch] = struct{}{}
		ordered = append(ordered, ch)
	}

	return &Aggregator{
		channels: set,
		ordered:  ordered,
		window:   time.Duration(windowDays) * 24 * time.Hour,
	}, nil
}

// Channels returns the channel names the aggregator recognizes, in the order
// they were configured.
func (a *Aggregator) Channels() []string {
	out := make([]string, len(a.ordered))
	copy(out, a.ordered)
	return out
}

// AggregateStats counts what one Aggregate pass kept and dropped. Drops are
// data-quality signals for the caller to log, never errors.
type AggregateStats struct {
	Businesses         int
	Signals            int
	DroppedUnknownGrid int
	DroppedOutOfWindow int
	DroppedChannel     int
	DroppedType        int
}

// Aggregate produces one metrics row per known cell for the category.
//
// Every cell appears in the output even when nothing matched it; its counts
// are zero. Records tagged with a grid ID outside the cell set never create
// rows and are counted as dropped instead. Signals older than the rolling
// window (measured back from now), on unrecognized channels, or with invalid
// types are dropped the same way. Normalized fields are left unset; the
// normalizer fills them in a later pass.
func (a *Aggregator) Aggregate(category string, cells []models.GridCell, businesses []models.BusinessRecord, signals []models.SocialSignal, now time.Time) (map[string]*models.GridMetrics, AggregateStats) {
	metrics := make(map[string]*models.GridMetrics, len(cells))
	for _, cell := range cells {
		counts := make(map[string]int, len(a.ordered))
		for _, ch := range a.ordered {
			counts[ch] = 0
		}
		metrics[cell.ID] = &models.GridMetrics{
			GridID:       cell.ID,
			Category:     category,
			SignalCounts: counts,
		}
	}

	var stats AggregateStats

	for _, b := range businesses {
		if b.Category != category {
			continue
		}
		m, ok := metrics[b.GridID]
		if !ok {
			stats.DroppedUnknownGrid++
			continue
		}
		m.BusinessCount++
		stats.Businesses++
	}

	cutoff := time.Time{}
	if a.window > 0 {
		cutoff = now.Add(-a.window)
	}
	for _, s := range signals {
		if s.Category != category {
			continue
		}
		if !s.Type.Valid() {
			stats.DroppedType++
			continue
		}
		if _, ok := a.channels[s.Channel]; !ok {
			stats.DroppedChannel++
			continue
		}
		if !cutoff.IsZero() && s.PostedAt.Before(cutoff) {
			stats.DroppedOutOfWindow++
			continue
		}
		m, ok := metrics[s.GridID]
		if !ok {
			stats.DroppedUnknownGrid++
			continue
		}
		m.SignalCounts[s.Channel]++
		stats.Signals++
	}

	return metrics, stats
}
