package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RoleShelterAdmin Role = "shelterAdmin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller attached to the request context by the
// auth middleware. Handlers and the WebSocket layer only ever see this, never
// the raw token.
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
