package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub fans report events out to connected clients. Supervisors receive every
// event; other users only receive events addressed to them.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	Register    chan *Client
	Unregister  chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.userClients[client.UserID]; !ok {
				h.userClients[client.UserID] = make(map[*Client]bool)
			}
			h.userClients[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastToSupervisors(event Event) {
	data, ok := encode(event)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.IsSupervisor {
			h.sendLocked(client, data)
		}
	}
}

func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, ok := encode(event)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.userClients[userID] {
		h.sendLocked(client, data)
	}
}

// sendLocked drops clients whose buffer is full.
func (h *Hub) sendLocked(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		slog.Warn("Dropping slow websocket client", "userID", client.UserID)
		h.removeLocked(client)
	}
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	if userSet, ok := h.userClients[client.UserID]; ok {
		delete(userSet, client)
		if len(userSet) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}

func encode(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", event.Type)
		return nil, false
	}
	return data, true
}
