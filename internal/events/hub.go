package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Event is one rule-execution notification pushed to connected dashboards.
type Event struct {
	RuleID        string    `json:"rule_id"`
	RuleName      string    `json:"rule_name"`
	InteractionID string    `json:"interaction_id"`
	Action        string    `json:"action,omitempty"`
	Matched       bool      `json:"matched"`
	At            time.Time `json:"at"`
}

// Hub broadcasts rule-execution events to websocket subscribers. Publishing
// is best effort and never blocks the evaluation loop: slow or dead
// connections are dropped.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// The API is CORS-guarded at the router level.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/api/events/ws", h.handleWS)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Drain reads so control frames are processed; unregister on close.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends the event to every subscriber, dropping connections that
// fail to accept it.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.conns, conn)
}
