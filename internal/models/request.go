package models

import (
	"time"

	"github.com/google/uuid"
)

// Request представляет заявку пользователя на книгу
type Request struct {
	ID          uuid.UUID `json:"id"`
	BookID      uuid.UUID `json:"book_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Type        string    `json:"type"`   // Giveaway, Exchange
	Status      string    `json:"status"` // Pending, Approved, Declined
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Book      *Book     `json:"book,omitempty"`
	Requester *User     `json:"requester,omitempty"`
	Owner     *User     `json:"owner,omitempty"`
	ChatID    uuid.UUID `json:"chat_id,omitempty"` // ID связанного чата
}

// User представляет минимальную информацию о пользователе для API
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
