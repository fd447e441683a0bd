// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/situs/internal/logging"
)

// Message types for the progress stream.
const (
	MessageTypeRequestReceived = "request_received"
	MessageTypeStageChanged    = "stage_changed"
	MessageTypeGridCompleted   = "grid_completed"
	MessageTypeRequestDone     = "request_done"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// broadcastBuffer bounds the pending-event queue. A full queue drops the
// oldest event rather than blocking the pipeline.
const broadcastBuffer = 256

// Message is one frame on the progress stream.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// RequestReceivedData announces a new pipeline request.
type RequestReceivedData struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// StageChangedData announces a stage transition.
type StageChangedData struct {
	RequestID string `json:"request_id"`
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
}

// GridCompletedData reports sweep progress.
type GridCompletedData struct {
	RequestID string `json:"request_id"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}

// RequestDoneData announces request completion.
type RequestDoneData struct {
	RequestID  string `json:"request_id"`
	DurationMS int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

// Hub maintains the set of connected clients and fans progress events out to
// them. One hub per process, run under the supervision tree.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with an empty client set.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until the context is canceled, then
// closes every client and returns ctx.Err().
//
// When several channels are ready Go's select picks randomly, so the loop
// uses explicit priority: cancellation first, then client lifecycle, then
// broadcasts. Client state is therefore always settled before an event is
// fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("progress stream client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("progress stream client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("progress stream hub stopped")
}

// fanOut delivers one message to every client in ascending client-ID order.
// A client whose send buffer is full is disconnected instead of blocking the
// hub loop.
func (h *Hub) fanOut(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("progress stream client too slow, disconnecting")
	}
}

// Broadcast queues a message for fan-out. When the queue is full the oldest
// pending event is dropped to make room; progress events are advisory and a
// fresher event always supersedes a stale one.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	message := Message{Type: messageType, Data: data}
	for {
		select {
		case h.broadcast <- message:
			return
		default:
		}
		select {
		case dropped := <-h.broadcast:
			logging.Debug().Str("dropped_type", dropped.Type).Msg("progress queue full, dropping oldest event")
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage renders a message as JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
