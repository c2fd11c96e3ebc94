package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event types pushed over the live marker feed.
const (
	EventMarkerCreated      = "marker_created"
	EventMarkerCleaned      = "marker_cleaned"
	EventMarkerRemoved      = "marker_removed"
	EventVerificationResult = "verification_result"
)

// Hub maintains active WebSocket connections and fans out marker feed
// events. Every connected client gets marker lifecycle events; personal
// events (verification results) go to a single user.
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound events
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message is an event queued for delivery. An empty UserID means
// deliver to everyone.
type Message struct {
	UserID string
	Data   interface{}
}

// Event is the wire format of a feed message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] client connected: %s (total %d)", client.UserID, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] client disconnected: %s (remaining %d)", client.UserID, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				log.Printf("❌ Failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			if message.UserID != "" {
				if client, ok := h.clients[message.UserID]; ok {
					h.deliver(client, data)
				}
			} else {
				for _, client := range h.clients {
					h.deliver(client, data)
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliver pushes data to one client, dropping the client when its
// buffer is full. Caller holds the write lock.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client.UserID)
		log.Printf("⚠️ Client buffer full, disconnecting: %s", client.UserID)
	}
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(eventType string, data interface{}) {
	h.broadcast <- &Message{Data: Event{Type: eventType, Data: data}}
}

// SendToUser sends an event to one user, if connected.
func (h *Hub) SendToUser(userID, eventType string, data interface{}) {
	h.broadcast <- &Message{UserID: userID, Data: Event{Type: eventType, Data: data}}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
