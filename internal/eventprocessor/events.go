// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package eventprocessor

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/situs/internal/models"
)

// SchemaVersion is the current envelope version. Increment on breaking
// changes to SignalEvent.
const SchemaVersion = 1

// SignalEvent is the wire envelope for one social signal on the ingestion
// bus. The canonical format for every producer; consumers convert it to a
// models.SocialSignal before storage.
//
// Lat/Lon are pointers because absence means "no usable geotag", which the
// scoring pipeline treats differently from coordinate zero.
type SignalEvent struct {
	SchemaVersion int `json:"schema_version,omitempty"`

	EventID    string    `json:"event_id"`
	Channel    string    `json:"channel"`
	Category   string    `json:"category"`
	SignalType string    `json:"signal_type"`
	Text       string    `json:"text,omitempty"`
	Engagement float64   `json:"engagement"`
	Lat        *float64  `json:"lat,omitempty"`
	Lon        *float64  `json:"lon,omitempty"`
	PostedAt   time.Time `json:"posted_at"`

	// RawPayload preserves the upstream post for debugging and future
	// fields.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// NewSignalEvent creates an envelope with a fresh event ID and the current
// schema version.
func NewSignalEvent(channel, category string) *SignalEvent {
	return &SignalEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Channel:       channel,
		Category:      category,
		PostedAt:      time.Now().UTC(),
	}
}

// GetSchemaVersion returns the envelope version, defaulting to 1 for legacy
// events published before the field existed.
func (e *SignalEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// Validate checks the envelope's required fields and coordinate pairing.
// Failures wrap ErrInvalidEvent.
func (e *SignalEvent) Validate() error {
	if e.EventID == "" {
		return &FieldError{Field: "event_id", Message: "required"}
	}
	if e.Channel == "" {
		return &FieldError{Field: "channel", Message: "required"}
	}
	if e.Category == "" {
		return &FieldError{Field: "category", Message: "required"}
	}
	if !models.SignalType(e.SignalType).Valid() {
		return &FieldError{Field: "signal_type", Message: "must be demand, complaint, or mention"}
	}
	if e.PostedAt.IsZero() {
		return &FieldError{Field: "posted_at", Message: "required"}
	}
	if (e.Lat == nil) != (e.Lon == nil) {
		return &FieldError{Field: "lat/lon", Message: "must be set together or not at all"}
	}
	if e.Lat != nil {
		if *e.Lat < -90 || *e.Lat > 90 {
			return &FieldError{Field: "lat", Message: "outside [-90, 90]"}
		}
		if *e.Lon < -180 || *e.Lon > 180 {
			return &FieldError{Field: "lon", Message: "outside [-180, 180]"}
		}
	}
	if e.Engagement < 0 {
		return &FieldError{Field: "engagement", Message: "must be non-negative"}
	}
	return nil
}

// Topic returns the NATS subject for this event:
// signals.<channel>.<signal_type>, e.g. signals.reddit.demand.
func (e *SignalEvent) Topic() string {
	return "signals." + e.Channel + "." + e.SignalType
}

// SocialSignal converts the envelope to the storage/scoring representation.
// Grid assignment stays empty; the pipeline tags signals per request.
func (e *SignalEvent) SocialSignal() models.SocialSignal {
	sig := models.SocialSignal{
		ID:         e.EventID,
		Category:   e.Category,
		Channel:    e.Channel,
		Type:       models.SignalType(e.SignalType),
		Text:       e.Text,
		Engagement: e.Engagement,
		PostedAt:   e.PostedAt,
	}
	if e.Lat != nil && e.Lon != nil {
		sig.Location = &models.Coordinate{Lat: *e.Lat, Lon: *e.Lon}
	}
	return sig
}
