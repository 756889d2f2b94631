package saved

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// SavedService представляет сервис для работы с сохраненными книгами
type SavedService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewSavedService создает новый экземпляр SavedService
func NewSavedService(cfg *config.Config) *SavedService {
	return &SavedService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// AddToSaved добавляет книгу в сохраненные
func (s *SavedService) AddToSaved(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		BookID string `json:"book_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.BookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	bookUUID, err := uuid.Parse(requestData.BookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	// Проверяем, существует ли книга и опубликована ли она
	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM books WHERE id = $1 AND status = 'active')
	`, bookUUID).Scan(&exists)

	if err != nil {
		log.Printf("Ошибка проверки существования книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки книги"})
	}

	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена или не активна"})
	}

	// Проверяем, не сохранена ли книга ранее
	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM saved_books WHERE user_id = $1 AND book_id = $2)
	`, userUUID, bookUUID).Scan(&exists)

	if err != nil {
		log.Printf("Ошибка проверки сохраненных книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки сохраненных книг"})
	}

	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Книга уже сохранена"})
	}

	savedID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO saved_books (id, user_id, book_id)
		VALUES ($1, $2, $3)
	`, savedID, userUUID, bookUUID)

	if err != nil {
		log.Printf("Ошибка сохранения книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения книги"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      savedID,
		"message": "Книга добавлена в сохраненные",
	})
}

// RemoveFromSaved удаляет книгу из сохраненных
func (s *SavedService) RemoveFromSaved(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	bookID := c.Params("id")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	if bookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM saved_books WHERE user_id = $1 AND book_id = $2)
	`, userUUID, bookUUID).Scan(&exists)

	if err != nil {
		log.Printf("Ошибка проверки сохраненных книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки сохраненных книг"})
	}

	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена в сохраненных"})
	}

	_, err = db.Pool.Exec(ctx, `
		DELETE FROM saved_books WHERE user_id = $1 AND book_id = $2
	`, userUUID, bookUUID)

	if err != nil {
		log.Printf("Ошибка удаления из сохраненных: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления из сохраненных"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Книга удалена из сохраненных",
	})
}

// GetSavedBooks возвращает список сохраненных книг пользователя
func (s *SavedService) GetSavedBooks(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Параметры пагинации
	limit := 20
	offsetStr := c.Query("offset", "0")
	offset, _ := strconv.Atoi(offsetStr)

	ctx, cancel := db.GetContext()
	defer cancel()

	// Сохраненные книги вместе с данными объявлений
	query := `
		SELECT s.id, s.user_id, s.book_id, s.created_at,
			   b.id, b.owner_id, b.title, b.author, b.description, b.condition, b.intent, b.tags, b.status, b.created_at, b.updated_at
		FROM saved_books s
		JOIN books b ON s.book_id = b.id
		WHERE s.user_id = $1 AND b.status = 'active'
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.Pool.Query(ctx, query, userUUID, limit, offset)
	if err != nil {
		log.Printf("Ошибка запроса сохраненных книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сохраненных книг"})
	}
	defer rows.Close()

	var savedBooks []models.SavedBook
	for rows.Next() {
		var saved models.SavedBook
		var book models.Book

		if err := rows.Scan(
			&saved.ID,
			&saved.UserID,
			&saved.BookID,
			&saved.CreatedAt,
			&book.ID,
			&book.OwnerID,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Condition,
			&book.Intent,
			&book.Tags,
			&book.Status,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		// Получаем изображения книги
		imgRows, err := db.Pool.Query(ctx, `
			SELECT id, book_id, url, preview_url, public_id, file_name, is_cover, position, created_at
			FROM book_images
			WHERE book_id = $1
			ORDER BY position ASC
		`, book.ID)

		if err != nil {
			log.Printf("Ошибка запроса изображений: %v", err)
		} else {
			var images []models.BookImage
			for imgRows.Next() {
				var img models.BookImage
				if err := imgRows.Scan(
					&img.ID,
					&img.BookID,
					&img.URL,
					&img.PreviewURL,
					&img.PublicID,
					&img.FileName,
					&img.IsCover,
					&img.Position,
					&img.CreatedAt,
				); err != nil {
					log.Printf("Ошибка сканирования изображения: %v", err)
					continue
				}
				images = append(images, img)
			}
			imgRows.Close()
			book.Images = images
		}

		saved.Book = &book
		savedBooks = append(savedBooks, saved)
	}

	// Общее количество сохраненных книг для пагинации
	var total int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM saved_books s
		JOIN books b ON s.book_id = b.id
		WHERE s.user_id = $1 AND b.status = 'active'
	`, userUUID).Scan(&total)

	if err != nil {
		log.Printf("Ошибка подсчета сохраненных книг: %v", err)
		// Игнорируем ошибку, просто не вернем общее количество
	}

	return c.JSON(fiber.Map{
		"saved":  savedBooks,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// CheckSaved проверяет, сохранена ли книга пользователем
func (s *SavedService) CheckSaved(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	bookID := c.Params("id")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	if bookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var savedID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT id FROM saved_books WHERE user_id = $1 AND book_id = $2
	`, userUUID, bookUUID).Scan(&savedID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(fiber.Map{
				"is_saved": false,
			})
		}
		log.Printf("Ошибка проверки сохраненных книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки сохраненных книг"})
	}

	return c.JSON(fiber.Map{
		"is_saved": true,
		"saved_id": savedID,
	})
}
