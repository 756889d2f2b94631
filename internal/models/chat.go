package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat представляет переписку владельца книги и запросившего после одобрения заявки
type Chat struct {
	ID              uuid.UUID `json:"id"`
	RequestID       uuid.UUID `json:"request_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	RequesterID     uuid.UUID `json:"requester_id"`
	LastMessageText string    `json:"last_message_text,omitempty"`
	LastMessageTime time.Time `json:"last_message_time,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Дополнительные поля для API
	UnreadCount int   `json:"unread_count"`
	Book        *Book `json:"book,omitempty"`
	Companion   *User `json:"companion,omitempty"` // Собеседник текущего пользователя
}

// Message представляет одно сообщение в чате
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
