// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package websocket

import (
	"time"

	"github.com/tomtom215/situs/internal/pipeline"
)

// Notifier adapts the hub to the pipeline's progress contract. Every method
// is non-blocking: events go through Broadcast's drop-oldest queue.
type Notifier struct {
	hub *Hub
}

// NewNotifier wraps a hub for use as a pipeline.ProgressNotifier.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) RequestReceived(requestID, kind string) {
	n.hub.Broadcast(MessageTypeRequestReceived, RequestReceivedData{
		RequestID: requestID,
		Kind:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) StageChanged(requestID string, stage pipeline.Stage) {
	n.hub.Broadcast(MessageTypeStageChanged, StageChangedData{
		RequestID: requestID,
		Stage:     string(stage),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) GridCompleted(requestID string, done, total int) {
	n.hub.Broadcast(MessageTypeGridCompleted, GridCompletedData{
		RequestID: requestID,
		Done:      done,
		Total:     total,
	})
}

func (n *Notifier) RequestDone(requestID string, durationMS int64) {
	n.hub.Broadcast(MessageTypeRequestDone, RequestDoneData{
		RequestID:  requestID,
		DurationMS: durationMS,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

var _ pipeline.ProgressNotifier = (*Notifier)(nil)
