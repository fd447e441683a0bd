// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package explain turns scored locations into human-readable evidence: the
// strongest social posts, the closest-watched competitors, and a one-line
// rationale, all derived deterministically so identical inputs produce
// identical explanations.
package explain

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/models"
)

// Default evidence list sizes.
const (
	DefaultTopPosts       = 3
	DefaultTopCompetitors = 5
)

// TextTruncateLen is the display length cap for post text, in runes.
const TextTruncateLen = 200

// Rationale template thresholds, closed below like the suitability tiers.
const (
	rationaleHigh     = 0.7
	rationaleModerate = 0.4
)

// Builder assembles evidence and rationales. Immutable after construction.
type Builder struct {
	topPosts       int
	topCompetitors int
}

// NewBuilder validates the evidence list sizes; both must be positive.
func NewBuilder(topPosts, topCompetitors int) (*Builder, error) {
	if topPosts <= 0 || topCompetitors <= 0 {
		return nil, fmt.Errorf("%w: evidence list sizes must be positive, got posts=%d competitors=%d",
			models.ErrConfiguration, topPosts, topCompetitors)
	}
	return &Builder{topPosts: topPosts, topCompetitors: topCompetitors}, nil
}

// TopPosts selects up to the configured number of signals, strongest
// engagement first, ties broken by signal ID for determinism. Signals with
// unrecognized types are skipped; post text is truncated for display. An
// empty input yields an empty list, never nil.
func (b *Builder) TopPosts(signals []models.SocialSignal) []models.PostEvidence {
	eligible := make([]models.SocialSignal, 0, len(signals))
	for _, s := range signals {
		if s.Type.Valid() {
			eligible = append(eligible, s)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Engagement != eligible[j].Engagement {
			return eligible[i].Engagement > eligible[j].Engagement
		}
		return eligible[i].ID < eligible[j].ID
	})

	if len(eligible) > b.topPosts {
		eligible = eligible[:b.topPosts]
	}
	posts := make([]models.PostEvidence, 0, len(eligible))
	for _, s := range eligible {
		posts = append(posts, models.PostEvidence{
			ID:         s.ID,
			Channel:    s.Channel,
			Type:       s.Type,
			Text:       truncateText(s.Text, TextTruncateLen),
			Engagement: s.Engagement,
			PostedAt:   s.PostedAt,
		})
	}
	return posts
}

// TopCompetitors selects up to the configured number of businesses, best
// rating first. Records without a rating sort after every rated one rather
// than as zero; ties break by record ID. Each entry carries the great-circle
// distance from center. An empty input yields an empty list, never nil.
func (b *Builder) TopCompetitors(center models.Coordinate, businesses []models.BusinessRecord) []models.CompetitorEvidence {
	recs := make([]models.BusinessRecord, len(businesses))
	copy(recs, businesses)

	sort.Slice(recs, func(i, j int) bool {
		ri, rj := recs[i].Rating, recs[j].Rating
		switch {
		case ri != nil && rj != nil:
			if *ri != *rj {
				return *ri > *rj
			}
		case ri != nil:
			return true
		case rj != nil:
			return false
		}
		return recs[i].ID < recs[j].ID
	})

	if len(recs) > b.topCompetitors {
		recs = recs[:b.topCompetitors]
	}
	competitors := make([]models.CompetitorEvidence, 0, len(recs))
	for _, r := range recs {
		competitors = append(competitors, models.CompetitorEvidence{
			ID:          r.ID,
			Name:        r.Name,
			Rating:      r.Rating,
			ReviewCount: r.ReviewCount,
			DistanceKm:  grid.HaversineKm(center, r.Location),
		})
	}
	return competitors
}

// Rationale renders the one-line summary for a final score. signalCount is
// the total demand-signal volume backing the location, businessCount the
// number of competing businesses.
func (b *Builder) Rationale(score float64, signalCount, businessCount int) string {
	switch {
	case score >= rationaleHigh:
		return fmt.Sprintf("high demand (%d posts), low competition (%d businesses)", signalCount, businessCount)
	case score >= rationaleModerate:
		return fmt.Sprintf("moderate opportunity with %d competitors and %d demand signals", businessCount, signalCount)
	default:
		return fmt.Sprintf("saturated market with %d businesses and limited demand", businessCount)
	}
}

// Evidence bundles both evidence lists for one location.
func (b *Builder) Evidence(center models.Coordinate, signals []models.SocialSignal, businesses []models.BusinessRecord) models.Evidence {
	return models.Evidence{
		TopPosts:    b.TopPosts(signals),
		Competitors: b.TopCompetitors(center, businesses),
	}
}

// Explanation assembles the full explain response for one scored grid cell.
// The signal count feeding the rationale uses the same type filter as
// TopPosts, so the sentence never cites posts the evidence list would reject.
func (b *Builder) Explanation(gridID, category string, score float64, center models.Coordinate, signals []models.SocialSignal, businesses []models.BusinessRecord) models.Explanation {
	eligible := 0
	for _, s := range signals {
		if s.Type.Valid() {
			eligible++
		}
	}
	return models.Explanation{
		GridID:      gridID,
		Category:    category,
		TopPosts:    b.TopPosts(signals),
		Competitors: b.TopCompetitors(center, businesses),
		Rationale:   b.Rationale(score, eligible, len(businesses)),
	}
}

// truncateText cuts s to limit runes. Counting runes rather than bytes keeps
// multi-byte text from being split mid-character.
func truncateText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
