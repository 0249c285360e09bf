package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatKind string

const (
	KindUserShelter ChatKind = "user-shelter"
	KindUserUser    ChatKind = "user-user"
)

// ShelterParties are the participants of a user-shelter chat: the inquiring
// member and the user who administers the shelter. The shelter reference is
// denormalized so clients can render the chat without a second lookup.
type ShelterParties struct {
	UserID         uuid.UUID `json:"user"`
	ShelterAdminID uuid.UUID `json:"shelterAdmin"`
	ShelterID      uuid.UUID `json:"shelter"`
}

// DirectParties are the participants of a user-user chat. The pair is
// unordered: {A, B} and {B, A} name the same chat.
type DirectParties struct {
	User1ID uuid.UUID `json:"user1"`
	User2ID uuid.UUID `json:"user2"`
}

// Chat is a tagged variant: Kind selects exactly one of the two participant
// payloads. A chat never carries both, and Kind never changes after creation.
// The embedded pointers keep the JSON shape flat (user/shelterAdmin/shelter
// or user1/user2 next to id and type).
type Chat struct {
	ID   uuid.UUID `json:"id"`
	Kind ChatKind  `json:"type"`
	*ShelterParties
	*DirectParties
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the chat's two participants.
// This is the single access-control rule for both the history endpoint and
// the live channel.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	switch c.Kind {
	case KindUserShelter:
		return c.ShelterParties != nil &&
			(c.ShelterParties.UserID == userID || c.ShelterParties.ShelterAdminID == userID)
	case KindUserUser:
		return c.DirectParties != nil &&
			(c.DirectParties.User1ID == userID || c.DirectParties.User2ID == userID)
	}
	return false
}

// Message is one entry of a chat's append-only log. Messages are immutable
// once written; there is no edit or delete path.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSummary is a chat without its message log, used for listings.
type ChatSummary struct {
	ID   uuid.UUID `json:"id"`
	Kind ChatKind  `json:"type"`
	*ShelterParties
	*DirectParties
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
