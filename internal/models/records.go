// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

import "time"

// SignalType classifies a social signal by intent.
type SignalType string

// Signal types recognized by the aggregator and the evidence selector.
const (
	SignalDemand    SignalType = "demand"
	SignalComplaint SignalType = "complaint"
	SignalMention   SignalType = "mention"
)

// Valid reports whether t is one of the recognized signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalDemand, SignalComplaint, SignalMention:
		return true
	}
	return false
}

// BusinessRecord is one business known to a data source. Read-only for the
// engine; sources own fetching and freshness.
//
// Rating is nil when the source has no rating for the business. Absent is not
// zero: evidence ranking sorts unrated businesses last rather than treating
// them as rated 0.0.
type BusinessRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Location    Coordinate `json:"location"`
	Rating      *float64   `json:"rating,omitempty"`
	ReviewCount int        `json:"review_count"`
	GridID      string     `json:"grid_id,omitempty"`
}

// SocialSignal is one demand/complaint/mention post from a social channel
// (instagram, reddit, ...). Read-only for the engine.
//
// Location is nil for posts without a usable geotag; such posts keep their
// grid assignment empty and are excluded from per-grid counts.
type SocialSignal struct {
	ID         string      `json:"id"`
	Category   string      `json:"category"`
	Channel    string      `json:"channel"`
	Type       SignalType  `json:"type"`
	Text       string      `json:"text"`
	Engagement float64     `json:"engagement"`
	PostedAt   time.Time   `json:"posted_at"`
	Location   *Coordinate `json:"location,omitempty"`
	GridID     string      `json:"grid_id,omitempty"`
}
