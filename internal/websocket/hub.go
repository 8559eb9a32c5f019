// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Message types for WebSocket communication. Dashboards receive one
// snapshot on connect, then live bus.update messages.
const (
	MessageTypeSnapshot  = "snapshot"
	MessageTypeBusUpdate = "bus.update"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is the wire envelope for WebSocket communication.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SnapshotFunc produces the current fleet view sent to a client on
// subscribe. Wired to the vehicle state store's All.
type SnapshotFunc func(ctx context.Context) ([]*models.ClassifiedRecord, error)

// Hub maintains the set of active clients and broadcasts classified
// records to them. A new client gets the fleet snapshot queued before the
// client joins the broadcast set, so the snapshot always precedes any
// update the client sees.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	snapshot   SnapshotFunc
	mu         sync.RWMutex
}

// NewHub creates a new Hub. snapshot may be nil, in which case clients
// start from live updates only.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		snapshot:   snapshot,
	}
}

// RunWithContext runs the hub loop until the context is canceled. It is
// designed to run under suture supervision and returns ctx.Err() on
// shutdown.
//
// Go's select picks randomly among ready channels, so lifecycle events get
// a non-blocking check first. A register must complete (snapshot queued,
// client added) before the next broadcast is drained, which is what keeps
// the snapshot ahead of updates.
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
			h.registerClient(ctx, client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(ctx, client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// registerClient queues the fleet snapshot to the new client and then adds
// it to the broadcast set.
func (h *Hub) registerClient(ctx context.Context, client *Client) {
	if h.snapshot != nil {
		records, err := h.snapshot(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("fleet snapshot failed, client starts from live updates")
			metrics.RecordWSError("snapshot")
		} else {
			if records == nil {
				records = []*models.ClassifiedRecord{}
			}
			client.send <- Message{Type: MessageTypeSnapshot, Data: records}
		}
	}

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.TrackWSConnection(true)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.TrackWSConnection(false)
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// broadcastToClients fans a message out to every client in stable ID
// order. A client whose send queue is full is dropped on the spot; one
// stuck dashboard must not stall the rest of the fleet view.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

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
		metrics.RecordWSSlowClientDropped()
		metrics.TrackWSConnection(false)
		logging.Warn().Uint64("client_id", client.id).Msg("dropped slow websocket client")
	}
}

// BroadcastClassified queues a classified record for delivery to all
// connected clients. The hot path never blocks on the hub; a full
// broadcast queue drops the message.
func (h *Hub) BroadcastClassified(record *models.ClassifiedRecord) {
	message := Message{
		Type: MessageTypeBusUpdate,
		Data: record,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.RecordWSError("broadcast_queue_full")
		logging.Warn().Str("vehicle_id", record.VehicleID).Msg("broadcast channel full, dropping update")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// shutdown closes every client and logs the reason. Context cancellation
// is the expected stop path, so it is not logged as an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
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
		Msg("websocket hub stopped")
}
