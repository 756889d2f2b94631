package request

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/exchange"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
	"github.com/rajivgeraev/bookswap-api/internal/websocket"
)

var dialect = goqu.Dialect("postgres")

// RequestService представляет сервис для работы с заявками на книги
type RequestService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *websocket.Manager
}

// NewRequestService создает новый экземпляр RequestService
func NewRequestService(cfg *config.Config, wsManager *websocket.Manager) *RequestService {
	return &RequestService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// CreateRequest создает новую заявку на книгу
func (s *RequestService) CreateRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	requesterID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		BookID string `json:"book_id"`
		Type   string `json:"type"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.BookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать ID книги"})
	}

	bookID, err := uuid.Parse(requestData.BookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Получаем владельца и намерение книги
	var ownerID uuid.UUID
	var intent, bookStatus string
	err = db.Pool.QueryRow(ctx, `
		SELECT owner_id, intent, status FROM books WHERE id = $1
	`, bookID).Scan(&ownerID, &intent, &bookStatus)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена"})
		}
		log.Printf("Ошибка запроса книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки книги"})
	}

	if bookStatus != models.BookActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Книга не опубликована"})
	}

	// Правила создания заявки: не своя книга, тип совпадает с намерением владельца
	if err := exchange.ValidateSubmit(ownerID, requesterID, intent, requestData.Type); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Защита от дубликатов: активная заявка той же тройки блокирует новую
	existing, err := loadRequestsForBook(ctx, bookID)
	if err != nil {
		log.Printf("Ошибка проверки существующих заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существующих заявок"})
	}

	if err := exchange.CheckDuplicate(existing, requesterID, requestData.Type); errors.Is(err, exchange.ErrDuplicateRequest) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	// Создаем заявку
	requestID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO requests (id, book_id, requester_id, type, status)
		VALUES ($1, $2, $3, $4, $5)
	`, requestID, bookID, requesterID, requestData.Type, exchange.StatusPending)

	if err != nil {
		// Частичный уникальный индекс закрывает гонку двух одновременных заявок
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": exchange.ErrDuplicateRequest.Error()})
		}
		log.Printf("Ошибка создания заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения заявки"})
	}

	// Уведомляем владельца книги
	s.wsManager.NotifyUser(ownerID.String(), websocket.EventRequestCreated, requestID.String())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"request_id": requestID,
		"message":    "Заявка успешно отправлена",
	})
}

// GetMyRequests возвращает список входящих и исходящих заявок
func (s *RequestService) GetMyRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Направление (входящие/исходящие/все) и фильтр по статусу
	direction := c.Query("direction", "all") // all, incoming, outgoing
	status := c.Query("status", "all")       // all, Pending, Approved, Declined

	ds := dialect.From(goqu.T("requests").As("r")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("r.book_id").Eq(goqu.I("b.id")))).
		Select("r.id", "r.book_id", "r.requester_id", "r.type", "r.status", "r.created_at", "r.updated_at").
		Order(goqu.I("r.created_at").Desc())

	switch direction {
	case "incoming":
		ds = ds.Where(goqu.I("b.owner_id").Eq(userUUID))
	case "outgoing":
		ds = ds.Where(goqu.I("r.requester_id").Eq(userUUID))
	default:
		ds = ds.Where(goqu.Or(
			goqu.I("b.owner_id").Eq(userUUID),
			goqu.I("r.requester_id").Eq(userUUID),
		))
	}

	if status != "all" {
		ds = ds.Where(goqu.I("r.status").Eq(status))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		log.Printf("Ошибка построения запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	requests, err := s.queryRequests(ctx, query, args)
	if err != nil {
		log.Printf("Ошибка запроса заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetApprovedRequests возвращает одобренные обмены с участием пользователя
func (s *RequestService) GetApprovedRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	query, args, err := dialect.From(goqu.T("requests").As("r")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("r.book_id").Eq(goqu.I("b.id")))).
		Select("r.id", "r.book_id", "r.requester_id", "r.type", "r.status", "r.created_at", "r.updated_at").
		Where(
			goqu.I("r.status").Eq(exchange.StatusApproved),
			goqu.Or(
				goqu.I("r.requester_id").Eq(userUUID),
				goqu.I("b.owner_id").Eq(userUUID),
			),
		).
		Order(goqu.I("r.updated_at").Desc()).
		Prepared(true).ToSQL()
	if err != nil {
		log.Printf("Ошибка построения запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	requests, err := s.queryRequests(ctx, query, args)
	if err != nil {
		log.Printf("Ошибка запроса заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// queryRequests выполняет запрос заявок и дозагружает книги, пользователей и чаты
func (s *RequestService) queryRequests(ctx context.Context, query string, args []interface{}) ([]models.Request, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID,
			&req.BookID,
			&req.RequesterID,
			&req.Type,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		// Загружаем дополнительную информацию о книге и участниках
		req.Book = getBookInfo(ctx, req.BookID)
		req.Requester = getUserInfo(ctx, req.RequesterID)
		if req.Book != nil {
			req.Owner = getUserInfo(ctx, req.Book.OwnerID)
		}

		// Получаем ID чата, связанного с заявкой (если есть)
		var chatID *uuid.UUID
		err = db.Pool.QueryRow(ctx, `
			SELECT id FROM chats WHERE request_id = $1 LIMIT 1
		`, req.ID).Scan(&chatID)

		if err == nil && chatID != nil {
			req.ChatID = *chatID
		}

		requests = append(requests, req)
	}

	return requests, nil
}

// ApproveRequest одобряет заявку и отклоняет остальные ожидающие заявки той же книги.
// Каскад выполняется в одной транзакции: либо применяются все переходы, либо ни одного
func (s *RequestService) ApproveRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	actingUserID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	req, ownerID, err := loadRequestWithOwner(ctx, requestUUID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	// Переход выполняет только владелец книги и только из Pending
	if err := exchange.ValidateTransition(*req, ownerID, actingUserID); err != nil {
		return transitionError(c, err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Одобряем целевую заявку; условие на статус закрывает гонку двух одобрений
	tag, err := tx.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, exchange.StatusApproved, requestUUID, exchange.StatusPending)

	if err != nil {
		log.Printf("Ошибка одобрения заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		// Кто-то успел обработать заявку раньше, транзакция откатывается целиком
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Заявка уже обработана"})
	}

	// Книга обещана одному получателю, остальные ожидающие заявки отклоняются
	_, err = tx.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = NOW()
		WHERE book_id = $2 AND id != $3 AND status = $4
	`, exchange.StatusDeclined, req.BookID, requestUUID, exchange.StatusPending)

	if err != nil {
		log.Printf("Ошибка каскадного отклонения заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявок"})
	}

	// Создаем чат между владельцем и получателем для обсуждения деталей
	chatID := uuid.New()
	now := time.Now()
	initialMessage := "Заявка одобрена. Здесь можно обсудить детали передачи книги."

	_, err = tx.Exec(ctx, `
		INSERT INTO chats (id, request_id, owner_id, requester_id, created_at, updated_at, last_message_text, last_message_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, chatID, requestUUID, ownerID, req.RequesterID, now, now, initialMessage, now, true)

	if err != nil {
		log.Printf("Ошибка создания чата: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
	}

	messageID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, text, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, messageID, chatID, ownerID, initialMessage, false, now)

	if err != nil {
		log.Printf("Ошибка создания системного сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Уведомляем получателя книги
	s.wsManager.NotifyUser(req.RequesterID.String(), websocket.EventRequestApproved, requestUUID.String())

	return c.JSON(fiber.Map{
		"success":    true,
		"request_id": requestUUID,
		"status":     exchange.StatusApproved,
		"chat_id":    chatID,
		"message":    "Заявка одобрена",
	})
}

// DeclineRequest отклоняет одну заявку, остальные заявки книги не затрагиваются
func (s *RequestService) DeclineRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	actingUserID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	req, ownerID, err := loadRequestWithOwner(ctx, requestUUID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	if err := exchange.ValidateTransition(*req, ownerID, actingUserID); err != nil {
		return transitionError(c, err)
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, exchange.StatusDeclined, requestUUID, exchange.StatusPending)

	if err != nil {
		log.Printf("Ошибка отклонения заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Заявка уже обработана"})
	}

	s.wsManager.NotifyUser(req.RequesterID.String(), websocket.EventRequestDeclined, requestUUID.String())

	return c.JSON(fiber.Map{
		"success":    true,
		"request_id": requestUUID,
		"status":     exchange.StatusDeclined,
		"message":    "Заявка отклонена",
	})
}

// transitionError преобразует ошибку перехода в HTTP-ответ
func transitionError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, exchange.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Только владелец книги может обработать заявку"})
	case errors.Is(err, exchange.ErrNotPending):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Заявка уже обработана"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обработки заявки"})
	}
}

// loadRequestWithOwner получает заявку и владельца связанной книги
func loadRequestWithOwner(ctx context.Context, requestID uuid.UUID) (*models.Request, uuid.UUID, error) {
	var req models.Request
	var ownerID uuid.UUID

	err := db.Pool.QueryRow(ctx, `
		SELECT r.id, r.book_id, r.requester_id, r.type, r.status, r.created_at, r.updated_at, b.owner_id
		FROM requests r
		JOIN books b ON b.id = r.book_id
		WHERE r.id = $1
	`, requestID).Scan(
		&req.ID,
		&req.BookID,
		&req.RequesterID,
		&req.Type,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&ownerID,
	)

	if err != nil {
		return nil, uuid.Nil, err
	}

	return &req, ownerID, nil
}

// loadRequestsForBook получает все заявки книги
func loadRequestsForBook(ctx context.Context, bookID uuid.UUID) ([]models.Request, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, book_id, requester_id, type, status, created_at, updated_at
		FROM requests
		WHERE book_id = $1
	`, bookID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID,
			&req.BookID,
			&req.RequesterID,
			&req.Type,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования заявки: %v", err)
			continue
		}
		requests = append(requests, req)
	}

	return requests, nil
}

// getBookInfo получает краткую информацию о книге для списков заявок
func getBookInfo(ctx context.Context, bookID uuid.UUID) *models.Book {
	var book models.Book

	err := db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, author, condition, intent, status
		FROM books
		WHERE id = $1
	`, bookID).Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Condition,
		&book.Intent,
		&book.Status,
	)

	if err != nil {
		log.Printf("Ошибка получения книги %s: %v", bookID, err)
		return nil
	}

	// Для списка заявок достаточно обложки
	rows, err := db.Pool.Query(ctx, `
		SELECT id, url, preview_url, is_cover
		FROM book_images
		WHERE book_id = $1
		ORDER BY position ASC
		LIMIT 1
	`, bookID)

	if err != nil {
		log.Printf("Ошибка получения изображений: %v", err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var image models.BookImage
			if err := rows.Scan(&image.ID, &image.URL, &image.PreviewURL, &image.IsCover); err != nil {
				log.Printf("Ошибка сканирования изображения: %v", err)
				continue
			}
			image.BookID = bookID
			book.Images = append(book.Images, image)
		}
	}

	return &book
}

// getUserInfo получает информацию о пользователе
func getUserInfo(ctx context.Context, userID uuid.UUID) *models.User {
	var user models.User
	var location, avatarURL pgtype.Text

	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, location, avatar_url
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Name,
		&location,
		&avatarURL,
	)

	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}

	if location.Valid {
		user.Location = location.String
	}
	if avatarURL.Valid {
		user.AvatarURL = avatarURL.String
	}

	return &user
}
