package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"cardsim/internal/event"
	"cardsim/pkg/logger"
)

const clientSendBuffer = 256

// Hub fans simulation events out to connected websocket clients. Broadcast
// never blocks: a client that cannot keep up has events dropped rather than
// stalling the simulation.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  logger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  log,
	}
}

// Add registers a connection and starts its pumps.
func (h *Hub) Add(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)

	h.logger.Info("websocket client connected", map[string]interface{}{
		"remote": conn.RemoteAddr().String(),
	})
}

// Broadcast sends one event to every client, dropping on full buffers.
func (h *Hub) Broadcast(e event.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("slow websocket client, event dropped", nil)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
}

// readPump discards inbound frames; it exists to notice closed connections.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}
