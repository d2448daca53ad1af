// Package gateway streams completed scan reports to WebSocket subscribers.
package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"market-scannerv1/internal/model"
)

// Hub manages WebSocket clients and fans completed reports out to them.
// Slow clients are dropped-from, not waited-on: a full send buffer means
// that client misses the report.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte // last broadcast report, replayed to new clients
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*Client]bool),
	}
}

// AddClient registers a client and replays the latest report to it.
func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	latest := h.latest
	n := len(h.clients)
	h.mu.Unlock()

	if latest != nil {
		select {
		case c.send <- latest:
		default:
		}
	}
	h.log.Info("ws client connected", "clients", n)
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws client disconnected", "clients", n)
}

// BroadcastReport serializes the report once and sends it to every
// connected client.
func (h *Hub) BroadcastReport(report model.ScanReport) {
	buf, err := json.Marshal(report)
	if err != nil {
		h.log.Error("report marshal failed", "err", err.Error())
		return
	}

	h.mu.Lock()
	h.latest = buf
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- buf:
		default:
			// client buffer full, skip this report for it
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
