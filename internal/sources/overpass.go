// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	overpass "github.com/serjvanilla/go-overpass"
	"golang.org/x/time/rate"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

const (
	defaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"
	defaultOverpassTimeout  = 30 * time.Second

	// Public Overpass instances ask clients to stay around 1 req/s.
	defaultOverpassRPS = 1.0
)

// OverpassConfig configures the OpenStreetMap-backed business source.
type OverpassConfig struct {
	// Endpoint is the Overpass API interpreter URL.
	Endpoint string

	// Timeout bounds a single Overpass HTTP call.
	Timeout time.Duration

	// RequestsPerSecond limits outbound query rate. Zero means the default
	// 1 req/s; negative disables limiting (self-hosted instances).
	RequestsPerSecond float64

	// Selectors maps a business category to the Overpass QL tag filters that
	// identify it, e.g. gym -> ["leisure"="fitness_centre"]. Empty uses
	// DefaultSelectors.
	Selectors map[string][]string
}

// DefaultSelectors returns the built-in category to OSM tag filter mapping.
// Deployments with richer taxonomies override these in configuration.
func DefaultSelectors() map[string][]string {
	return map[string][]string{
		"gym":         {`["leisure"="fitness_centre"]`, `["amenity"="gym"]`},
		"cafe":        {`["amenity"="cafe"]`},
		"restaurant":  {`["amenity"~"restaurant|fast_food"]`},
		"pharmacy":    {`["amenity"="pharmacy"]`},
		"supermarket": {`["shop"~"supermarket|convenience"]`},
		"bakery":      {`["shop"="bakery"]`},
		"salon":       {`["shop"~"hairdresser|beauty"]`},
		"bookstore":   {`["shop"="books"]`},
		"clothing":    {`["shop"="clothes"]`},
		"laundry":     {`["shop"~"laundry|dry_cleaning"]`},
	}
}

// OverpassSource is a BusinessSource backed by the OpenStreetMap Overpass
// API. OSM carries no rating data, so every record it returns has an absent
// rating and a zero review count.
type OverpassSource struct {
	client    *overpass.Client
	limiter   *rate.Limiter
	selectors map[string][]string
}

// NewOverpassSource creates an Overpass-backed business source.
func NewOverpassSource(cfg OverpassConfig) *OverpassSource {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOverpassEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOverpassTimeout
	}
	selectors := cfg.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors()
	}

	limit := rate.Limit(defaultOverpassRPS)
	switch {
	case cfg.RequestsPerSecond > 0:
		limit = rate.Limit(cfg.RequestsPerSecond)
	case cfg.RequestsPerSecond < 0:
		limit = rate.Inf
	}

	httpClient := &http.Client{Timeout: timeout}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)

	// Self-hosted mirrors are often addressed with an API key in the URL.
	logging.Info().
		Str("endpoint", logging.SanitizeURL(endpoint)).
		Msg("Overpass business source configured")

	return &OverpassSource{
		client:    &client,
		limiter:   rate.NewLimiter(limit, 1),
		selectors: selectors,
	}
}

// FetchByBounds queries OSM for all businesses of the category inside the box.
func (s *OverpassSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	// Overpass bbox filter order is (south,west,north,east).
	filter := fmt.Sprintf("(%g,%g,%g,%g)", bounds.South, bounds.West, bounds.North, bounds.East)
	return s.fetch(ctx, category, "fetch_by_bounds", filter)
}

// FetchByRadius queries OSM for all businesses of the category within
// radiusM meters of center using an around filter.
func (s *OverpassSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	filter := fmt.Sprintf("(around:%g,%g,%g)", radiusM, center.Lat, center.Lon)
	return s.fetch(ctx, category, "fetch_by_radius", filter)
}

func (s *OverpassSource) fetch(ctx context.Context, category, operation, filter string) ([]models.BusinessRecord, error) {
	selectors, ok := s.selectors[category]
	if !ok {
		return nil, fmt.Errorf("%w: no overpass selectors for category %q", models.ErrConfiguration, category)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("overpass rate wait: %w", err)
	}

	query := buildOverpassQuery(selectors, filter)

	// go-overpass queries carry no context; the HTTP client timeout bounds
	// the call.
	start := time.Now()
	result, err := s.client.Query(query)
	metrics.RecordSourceFetch("overpass", operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass query: %w", models.ErrUpstreamUnavailable, err)
	}

	return convertOverpassResult(&result, category), nil
}

// buildOverpassQuery emits an Overpass QL query matching both nodes and ways
// for every selector, with way member nodes recursed for center computation.
func buildOverpassQuery(selectors []string, filter string) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, sel := range selectors {
		fmt.Fprintf(&b, "  node%s%s;\n", sel, filter)
		fmt.Fprintf(&b, "  way%s%s;\n", sel, filter)
	}
	b.WriteString(");\nout body;\n>;\nout skel qt;\n")
	return b.String()
}

// convertOverpassResult maps nodes and way centers to business records.
// Results are sorted by ID so repeated fetches are deterministic.
func convertOverpassResult(result *overpass.Result, category string) []models.BusinessRecord {
	records := make([]models.BusinessRecord, 0, len(result.Nodes)+len(result.Ways))

	for _, node := range result.Nodes {
		// Skeleton nodes pulled in by way recursion carry no tags.
		if len(node.Tags) == 0 {
			continue
		}
		records = append(records, models.BusinessRecord{
			ID:       fmt.Sprintf("osm-node-%d", node.ID),
			Name:     overpassName(node.Tags, category),
			Category: category,
			Location: models.Coordinate{Lat: node.Lat, Lon: node.Lon},
		})
	}

	for _, way := range result.Ways {
		if len(way.Nodes) == 0 {
			continue
		}
		// Way center is the mean of its member node coordinates.
		var lat, lon float64
		for _, node := range way.Nodes {
			lat += node.Lat
			lon += node.Lon
		}
		n := float64(len(way.Nodes))
		records = append(records, models.BusinessRecord{
			ID:       fmt.Sprintf("osm-way-%d", way.ID),
			Name:     overpassName(way.Tags, category),
			Category: category,
			Location: models.Coordinate{Lat: lat / n, Lon: lon / n},
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func overpassName(tags map[string]string, category string) string {
	if name := tags["name"]; name != "" {
		return name
	}
	return "unnamed " + category
}

// Compile-time interface check.
var _ BusinessSource = (*OverpassSource)(nil)
