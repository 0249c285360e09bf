package chat

import (
	"log"
	"sync"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/metrics"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/models"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Subscription asks the hub to add a client to a chat's broadcast group.
type Subscription struct {
	Client *Client
	ChatID uuid.UUID
}

// RoomMessage is a pre-marshaled event fanned out to one chat's group.
type RoomMessage struct {
	ChatID  uuid.UUID
	Payload []byte
}

// Hub owns the chat-group membership table. All mutations — register,
// unregister, join, broadcast — flow through its channels and are applied by
// the single Run goroutine, so the room map is never touched concurrently.
// The hub is constructed in main and injected; there is no package-level
// connection state.
type Hub struct {
	clients map[*Client]bool
	rooms   map[uuid.UUID]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Join       chan Subscription
	Broadcast  chan RoomMessage
	Quit       chan struct{}
}

// Client is one live WebSocket connection, bound to its authenticated
// identity at upgrade time.
type Client struct {
	Conn     *websocket.Conn
	Hub      *Hub
	Chats    repository.ChatRepository
	Identity models.Identity
	Send     chan []byte
	Limiter  *middleware.RateLimiter

	LastWarning time.Time

	rooms map[uuid.UUID]bool // owned by the hub goroutine
	once  sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Join:       make(chan Subscription),
		Broadcast:  make(chan RoomMessage, 256),
		Quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	log.Println("[HUB] Main loop started. Listening for events...")
	for {
		select {
		case <-h.Quit:
			log.Println("[HUB] Quit signal received. Shutting down all client connections...")
			for client := range h.clients {
				h.cleanupClient(client)
			}
			return

		case client := <-h.Register:
			h.clients[client] = true
			metrics.ConnectionsTotal.Inc()
			log.Printf("[HUB] Client registered user=%s. Total active: %d", client.Identity.ID, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.cleanupClient(client)
			}

		case sub := <-h.Join:
			room, ok := h.rooms[sub.ChatID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[sub.ChatID] = room
			}
			room[sub.Client] = true
			sub.Client.rooms[sub.ChatID] = true
			metrics.RoomsTotal.Set(float64(len(h.rooms)))
			log.Printf("[HUB] Client user=%s joined chat %s (members=%d)", sub.Client.Identity.ID, sub.ChatID, len(room))

		case msg := <-h.Broadcast:
			room, ok := h.rooms[msg.ChatID]
			if !ok {
				continue
			}
			for client := range room {
				select {
				case client.Send <- msg.Payload:
					metrics.MessagesTotal.WithLabelValues("delivered").Inc()
				default:
					// A full send buffer means a slow or dead peer. Evict it
					// rather than stall delivery for the rest of the room.
					log.Printf("[HUB] WARNING: Client user=%s buffer full. Evicting slow consumer.", client.Identity.ID)
					metrics.MessagesTotal.WithLabelValues("dropped").Inc()
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}

// cleanupClient removes a client from every group it joined, prunes groups
// left empty, and releases the connection. Safe to call more than once: the
// channel close and socket close run under the client's once.
func (h *Hub) cleanupClient(c *Client) {
	delete(h.clients, c)
	for chatID := range c.rooms {
		if room, ok := h.rooms[chatID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, chatID)
			}
		}
	}

	// Send is deliberately never closed: the read loop may still queue an
	// error event for a client being evicted. Closing the socket is enough —
	// both pumps exit on the next read, write, or ping.
	c.once.Do(func() {
		if c.Conn != nil {
			c.Conn.Close()
		}
	})

	metrics.ConnectionsTotal.Dec()
	metrics.RoomsTotal.Set(float64(len(h.rooms)))
	log.Printf("[HUB] Session closed for user=%s. Active clients remaining: %d", c.Identity.ID, len(h.clients))
}
