package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedBook представляет книгу, сохраненную пользователем
type SavedBook struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BookID    uuid.UUID `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`

	// Данные книги для API-ответов
	Book *Book `json:"book,omitempty"`
}
