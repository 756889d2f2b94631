// Package exchange содержит правила жизненного цикла заявок на книги:
// защиту от дубликатов, переходы статусов и вычисление доступности книги.
// Все функции чистые и работают со слайсами заявок, переданными извне;
// единственный источник истины — база данных, пакет состояния не хранит.
package exchange

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// Статусы заявки
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusDeclined = "Declined"
)

// Производные статусы доступности книги
const (
	BookAvailable = "Available"
	BookRequested = "Requested"
	BookApproved  = "Approved"
)

// Ошибки жизненного цикла заявок
var (
	// ErrSelfRequest — владелец пытается запросить собственную книгу
	ErrSelfRequest = errors.New("нельзя отправить заявку на собственную книгу")
	// ErrTypeMismatch — тип заявки не совпадает с намерением владельца книги
	ErrTypeMismatch = errors.New("тип заявки не соответствует намерению владельца")
	// ErrInvalidType — тип заявки не Giveaway и не Exchange
	ErrInvalidType = errors.New("недопустимый тип заявки")
	// ErrDuplicateRequest — активная заявка с такой тройкой (книга, пользователь, тип) уже существует
	ErrDuplicateRequest = errors.New("такая заявка уже отправлена")
	// ErrNotOwner — переход статуса пытается выполнить не владелец книги
	ErrNotOwner = errors.New("только владелец книги может изменить статус заявки")
	// ErrNotPending — заявка уже в терминальном статусе
	ErrNotPending = errors.New("заявка уже обработана")
	// ErrRequestNotFound — заявка не найдена среди заявок книги
	ErrRequestNotFound = errors.New("заявка не найдена")
)

// DeriveStatus вычисляет отображаемый статус книги по ее заявкам.
// Приоритет: Approved > Requested > Available. Результат не зависит от
// порядка заявок и никогда не сохраняется в БД отдельно.
func DeriveStatus(requests []models.Request) string {
	hasPending := false
	for _, r := range requests {
		switch r.Status {
		case StatusApproved:
			return BookApproved
		case StatusPending:
			hasPending = true
		}
	}
	if hasPending {
		return BookRequested
	}
	return BookAvailable
}

// CheckExisting ищет активную заявку той же тройки (книга, пользователь, тип).
// Заявки в статусе Declined не блокируют повторную отправку.
func CheckExisting(requests []models.Request, requesterID uuid.UUID, reqType string) *models.Request {
	for i := range requests {
		r := &requests[i]
		if r.RequesterID != requesterID || r.Type != reqType {
			continue
		}
		if r.Status == StatusPending || r.Status == StatusApproved {
			return r
		}
	}
	return nil
}

// CheckDuplicate возвращает ErrDuplicateRequest, если активная заявка
// той же тройки уже существует
func CheckDuplicate(requests []models.Request, requesterID uuid.UUID, reqType string) error {
	if CheckExisting(requests, requesterID, reqType) != nil {
		return ErrDuplicateRequest
	}
	return nil
}

// ValidateSubmit проверяет заявку перед созданием
func ValidateSubmit(ownerID, requesterID uuid.UUID, bookIntent, reqType string) error {
	if reqType != models.IntentGiveaway && reqType != models.IntentExchange {
		return ErrInvalidType
	}
	if requesterID == ownerID {
		return ErrSelfRequest
	}
	if reqType != bookIntent {
		return ErrTypeMismatch
	}
	return nil
}

// ValidateTransition проверяет, что actingUserID может перевести заявку из Pending
func ValidateTransition(req models.Request, ownerID, actingUserID uuid.UUID) error {
	if actingUserID != ownerID {
		return ErrNotOwner
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}
	return nil
}

// ApplyApprove одобряет заявку и отклоняет остальные Pending заявки той же книги.
// Возвращает новый слайс; исходный не изменяется. Каскад неделим: либо
// применяются все переходы, либо возвращается ошибка и ни одного.
func ApplyApprove(requests []models.Request, targetID uuid.UUID, ownerID, actingUserID uuid.UUID, now time.Time) ([]models.Request, error) {
	target := findByID(requests, targetID)
	if target == nil {
		return nil, ErrRequestNotFound
	}
	if err := ValidateTransition(*target, ownerID, actingUserID); err != nil {
		return nil, err
	}

	result := make([]models.Request, len(requests))
	copy(result, requests)

	for i := range result {
		switch {
		case result[i].ID == targetID:
			result[i].Status = StatusApproved
			result[i].UpdatedAt = now
		case result[i].Status == StatusPending:
			// Книга обещана одному получателю, остальные ожидающие отклоняются
			result[i].Status = StatusDeclined
			result[i].UpdatedAt = now
		}
	}

	return result, nil
}

// ApplyDecline отклоняет одну заявку, не затрагивая остальные
func ApplyDecline(requests []models.Request, targetID uuid.UUID, ownerID, actingUserID uuid.UUID, now time.Time) ([]models.Request, error) {
	target := findByID(requests, targetID)
	if target == nil {
		return nil, ErrRequestNotFound
	}
	if err := ValidateTransition(*target, ownerID, actingUserID); err != nil {
		return nil, err
	}

	result := make([]models.Request, len(requests))
	copy(result, requests)

	for i := range result {
		if result[i].ID == targetID {
			result[i].Status = StatusDeclined
			result[i].UpdatedAt = now
		}
	}

	return result, nil
}

// findByID ищет заявку по ID
func findByID(requests []models.Request, id uuid.UUID) *models.Request {
	for i := range requests {
		if requests[i].ID == id {
			return &requests[i]
		}
	}
	return nil
}
