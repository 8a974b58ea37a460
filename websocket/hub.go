// Package websocket pushes save-status events to connected clients: a
// rating persisted, queued for replay, or replayed from the pending queue.
// Delivery is best effort; the submission pipeline never waits on it.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Message is one event delivered to a user's open connections.
type Message struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub manages the open connections of all users. A user may hold several
// connections (multiple tabs or devices); events fan out to all of them.
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	notify     chan userMessage

	mu sync.RWMutex
}

type userMessage struct {
	userID  uint
	message *Message
}

// NewHub creates a new notification hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notify:     make(chan userMessage, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("🔌 Client connected: user=%d", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok && conns[client] {
				delete(conns, client)
				close(client.Send)
				if len(conns) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
			log.Printf("🔌 Client disconnected: user=%d", client.UserID)

		case um := <-h.notify:
			h.deliver(um.userID, um.message)
		}
	}
}

// NotifyUser queues an event for the user's connections without blocking.
// Events for disconnected users are dropped.
func (h *Hub) NotifyUser(userID uint, event string, data map[string]interface{}) {
	um := userMessage{
		userID: userID,
		message: &Message{
			Event:     event,
			Data:      data,
			Timestamp: time.Now().UTC(),
		},
	}
	select {
	case h.notify <- um:
	default:
		log.Printf("⚠️ Notification channel full, dropping %q for user %d", event, userID)
	}
}

func (h *Hub) deliver(userID uint, message *Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Failed to encode notification: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("⚠️ Send buffer full for user %d, dropping notification", userID)
		}
	}
}
