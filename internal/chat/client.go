package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/metrics"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/models"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 10 * time.Second
	maxFrameBytes  = MaxMessageBytes + 512 // payload plus event envelope
	storageTimeout = 5 * time.Second
)

func NewClient(hub *Hub, conn *websocket.Conn, chats repository.ChatRepository, identity models.Identity) *Client {
	return &Client{
		Conn:     conn,
		Hub:      hub,
		Chats:    chats,
		Identity: identity,
		Send:     make(chan []byte, 256),
		Limiter:  middleware.NewRatelimiter(5, 500*time.Millisecond),
		rooms:    make(map[uuid.UUID]bool),
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameBytes)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CLIENT] Unexpected close for user=%s: %v", c.Identity.ID, err)
			}
			break
		}

		if !c.Limiter.Allow() {
			if time.Since(c.LastWarning) > 3*time.Second {
				c.sendError("rate limit exceeded")
				c.LastWarning = time.Now()
			}
			continue
		}

		var event InboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			// Malformed payloads are logged and dropped; the connection
			// stays open.
			log.Printf("[CLIENT] Dropping malformed payload from user=%s: %v", c.Identity.ID, err)
			continue
		}

		switch event.Type {
		case EventJoinChat:
			c.handleJoin(event)
		case EventSendMessage:
			c.handleSendMessage(event)
		default:
			c.sendError("unknown event type")
		}
	}
}

func (c *Client) handleJoin(event InboundEvent) {
	chatID, err := uuid.Parse(event.ChatID)
	if err != nil {
		c.sendError("invalid chatId")
		return
	}

	c.Hub.Join <- Subscription{Client: c, ChatID: chatID}

	ack, _ := json.Marshal(JoinedEvent{Type: EventJoined, ChatID: chatID})
	c.deliver(ack)
}

// handleSendMessage validates, persists, then broadcasts. Persistence comes
// first: a message is fanned out only after the store accepted it, so history
// and live delivery can never disagree on what happened.
func (c *Client) handleSendMessage(event InboundEvent) {
	chatID, err := uuid.Parse(event.ChatID)
	if err != nil {
		c.sendError("invalid chatId")
		return
	}

	if err := ValidateText(event.Text); err != nil {
		c.sendError(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	chatModel, err := c.Chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.sendError("chat not found")
			return
		}
		log.Printf("[CLIENT] Chat lookup failed for %s: %v", chatID, err)
		c.sendError("internal error")
		return
	}

	// Same participant check as the history endpoint. The sender is the
	// connection's identity, never the client-supplied field.
	if !chatModel.HasParticipant(c.Identity.ID) {
		c.sendError("you only have access to your own chats")
		return
	}

	message, err := c.Chats.AppendMessage(ctx, chatID, c.Identity.ID, event.Text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.sendError("chat not found")
			return
		}
		log.Printf("[CLIENT] Failed to persist message for chat %s: %v", chatID, err)
		c.sendError("failed to save message")
		return
	}
	metrics.MessagesTotal.WithLabelValues("received").Inc()

	payload, err := json.Marshal(NewMessageEvent{
		Type:   EventNewMessage,
		ChatID: chatID,
		NewMessage: MessagePayload{
			Sender:    message.SenderID,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		},
	})
	if err != nil {
		log.Printf("[CLIENT] Failed to marshal newMessage for chat %s: %v", chatID, err)
		return
	}

	c.Hub.Broadcast <- RoomMessage{ChatID: chatID, Payload: payload}
}

func (c *Client) sendError(reason string) {
	payload, _ := json.Marshal(ErrorEvent{Error: reason})
	c.deliver(payload)
}

// deliver queues an event for this connection without ever blocking the read
// loop. If the write side is backed up the event is dropped; the write pump
// and hub handle eviction of dead peers.
func (c *Client) deliver(payload []byte) {
	select {
	case c.Send <- payload:
	default:
	}
}
