package models

import (
	"time"

	"github.com/google/uuid"
)

type Shelter struct {
	ID          uuid.UUID `json:"id"`
	AdminID     uuid.UUID `json:"admin"` // one shelter per admin user
	Name        string    `json:"name"`
	City        string    `json:"city,omitempty"`
	Location    string    `json:"location"`
	Phone       string    `json:"phone"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
