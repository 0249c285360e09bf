package chat

import (
	"time"

	"github.com/google/uuid"
)

// Wire events of the live channel. Inbound and outbound payloads are JSON
// text frames, one event per frame.
const (
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"
	EventJoined      = "joined"
	EventNewMessage  = "newMessage"
)

// InboundEvent is everything a client may send. Sender is accepted on the
// wire for compatibility with older clients but ignored: the sender of a
// persisted message is always the connection's authenticated identity.
type InboundEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text,omitempty"`
}

type JoinedEvent struct {
	Type   string    `json:"type"`
	ChatID uuid.UUID `json:"chatId"`
}

type MessagePayload struct {
	Sender    uuid.UUID `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewMessageEvent struct {
	Type       string         `json:"type"`
	ChatID     uuid.UUID      `json:"chatId"`
	NewMessage MessagePayload `json:"newMessage"`
}

// ErrorEvent is reported on the same connection for every failure; the
// connection itself stays open so the client can retry.
type ErrorEvent struct {
	Error string `json:"error"`
}
