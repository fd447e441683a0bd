// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"
)

// SerializeEvent validates and encodes an envelope for the wire.
func SerializeEvent(event *SignalEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal signal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent decodes an envelope. The caller validates separately so
// malformed-but-parseable events can be reported with field detail.
func DeserializeEvent(data []byte) (*SignalEvent, error) {
	var event SignalEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal signal event: %w", err)
	}
	return &event, nil
}
