// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package explain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/situs/internal/models"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(DefaultTopPosts, DefaultTopCompetitors)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	return b
}

func ratingPtr(v float64) *float64 { return &v }

func TestNewBuilderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewBuilder(0, 5); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("NewBuilder(0, 5) error = %v, want models.ErrConfiguration", err)
	}
	if _, err := NewBuilder(3, -1); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("NewBuilder(3, -1) error = %v, want models.ErrConfiguration", err)
	}
}

func TestTopPostsOrderingAndCutoff(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	posted := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	signals := []models.SocialSignal{
		{ID: "s4", Type: models.SignalMention, Engagement: 40, Text: "mention", PostedAt: posted},
		{ID: "s2", Type: models.SignalDemand, Engagement: 90, Text: "really want a cafe here", PostedAt: posted},
		{ID: "s5", Type: "rant", Engagement: 500, Text: "ignored type", PostedAt: posted},
		{ID: "s3", Type: models.SignalComplaint, Engagement: 90, Text: "nowhere to sit downtown", PostedAt: posted},
		{ID: "s1", Type: models.SignalDemand, Engagement: 12, Text: "low", PostedAt: posted},
	}

	posts := b.TopPosts(signals)

	wantOrder := []string{"s2", "s3", "s4"}
	if len(posts) != len(wantOrder) {
		t.Fatalf("TopPosts() length = %d, want %d", len(posts), len(wantOrder))
	}
	for i, want := range wantOrder {
		if posts[i].ID != want {
			t.Errorf("TopPosts()[%d].ID = %q, want %q", i, posts[i].ID, want)
		}
	}
}

func TestTopPostsTruncatesText(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	long := strings.Repeat("é", 250)
	posts := b.TopPosts([]models.SocialSignal{
		{ID: "s1", Type: models.SignalDemand, Engagement: 1, Text: long},
	})

	if len(posts) != 1 {
		t.Fatalf("TopPosts() length = %d, want 1", len(posts))
	}
	got := []rune(posts[0].Text)
	if len(got) != TextTruncateLen {
		t.Errorf("truncated text length = %d runes, want %d", len(got), TextTruncateLen)
	}
	if posts[0].Text != strings.Repeat("é", TextTruncateLen) {
		t.Error("truncation split the text somewhere other than a rune boundary")
	}
}

func TestTopPostsEmptyInput(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	posts := b.TopPosts(nil)
	if posts == nil {
		t.Fatal("TopPosts(nil) = nil, want an empty list")
	}
	if len(posts) != 0 {
		t.Errorf("TopPosts(nil) length = %d, want 0", len(posts))
	}
}

func TestTopCompetitorsOrdering(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	businesses := []models.BusinessRecord{
		{ID: "b3", Name: "Unrated Beans", Location: center},
		{ID: "b1", Name: "Cafe One", Rating: ratingPtr(4.2), Location: center},
		{ID: "b5", Name: "Also Unrated", Location: center},
		{ID: "b2", Name: "Cafe Two", Rating: ratingPtr(4.8), Location: center},
		{ID: "b4", Name: "Tied Cafe", Rating: ratingPtr(4.2), Location: center},
	}

	competitors := b.TopCompetitors(center, businesses)

	wantOrder := []string{"b2", "b1", "b4", "b3", "b5"}
	if len(competitors) != len(wantOrder) {
		t.Fatalf("TopCompetitors() length = %d, want %d", len(competitors), len(wantOrder))
	}
	for i, want := range wantOrder {
		if competitors[i].ID != want {
			t.Errorf("TopCompetitors()[%d].ID = %q, want %q", i, competitors[i].ID, want)
		}
	}
	if competitors[3].Rating != nil {
		t.Error("unrated competitor carries a rating, want nil preserved rather than zero")
	}
}

func TestTopCompetitorsDistanceAnnotation(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	competitors := b.TopCompetitors(center, []models.BusinessRecord{
		{ID: "b1", Name: "At Center", Rating: ratingPtr(4.0), Location: center},
		// 0.004 degrees of latitude is roughly 445 metres.
		{ID: "b2", Name: "Up The Road", Rating: ratingPtr(3.0), Location: models.Coordinate{Lat: 24.864, Lon: 67.0}},
	})

	if competitors[0].DistanceKm != 0 {
		t.Errorf("coincident competitor DistanceKm = %v, want exactly 0", competitors[0].DistanceKm)
	}
	if math.Abs(competitors[1].DistanceKm-0.4448) > 1e-3 {
		t.Errorf("DistanceKm = %v, want about 0.4448", competitors[1].DistanceKm)
	}
}

func TestTopCompetitorsCutoff(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder(3, 2)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	competitors := b.TopCompetitors(center, []models.BusinessRecord{
		{ID: "b1", Rating: ratingPtr(3.0), Location: center},
		{ID: "b2", Rating: ratingPtr(5.0), Location: center},
		{ID: "b3", Rating: ratingPtr(4.0), Location: center},
	})

	if len(competitors) != 2 {
		t.Fatalf("TopCompetitors() length = %d, want 2", len(competitors))
	}
	if competitors[0].ID != "b2" || competitors[1].ID != "b3" {
		t.Errorf("TopCompetitors() = %q/%q, want b2/b3", competitors[0].ID, competitors[1].ID)
	}
}

func TestRationaleTemplates(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"high at boundary", 0.7, "high demand (47 posts), low competition (2 businesses)"},
		{"high above", 0.91, "high demand (47 posts), low competition (2 businesses)"},
		{"moderate just below high", 0.699, "moderate opportunity with 2 competitors and 47 demand signals"},
		{"moderate at boundary", 0.4, "moderate opportunity with 2 competitors and 47 demand signals"},
		{"saturated just below moderate", 0.399, "saturated market with 2 businesses and limited demand"},
		{"saturated at zero", 0, "saturated market with 2 businesses and limited demand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := b.Rationale(tt.score, 47, 2); got != tt.want {
				t.Errorf("Rationale(%v) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestExplanationAssembly(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	signals := []models.SocialSignal{
		{ID: "s1", Type: models.SignalDemand, Engagement: 10, Text: "want"},
		{ID: "s2", Type: "rant", Engagement: 99, Text: "ignored"},
	}
	businesses := []models.BusinessRecord{
		{ID: "b1", Name: "Cafe One", Rating: ratingPtr(4.0), Location: center},
	}

	exp := b.Explanation("karachi-001-002", "cafe", 0.91, center, signals, businesses)

	if exp.GridID != "karachi-001-002" || exp.Category != "cafe" {
		t.Errorf("Explanation identity = %s/%s, want karachi-001-002/cafe", exp.GridID, exp.Category)
	}
	if len(exp.TopPosts) != 1 {
		t.Errorf("TopPosts length = %d, want 1 after type filtering", len(exp.TopPosts))
	}
	// The rationale counts only signals the evidence list would accept.
	if want := "high demand (1 posts), low competition (1 businesses)"; exp.Rationale != want {
		t.Errorf("Rationale = %q, want %q", exp.Rationale, want)
	}
}
