package book

import (
	"context"
	"log"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/exchange"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/cloudinary"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

var dialect = goqu.Dialect("postgres")

// RequestImage представляет структуру изображения в запросе создания книги
type RequestImage struct {
	URL                string `json:"url"`
	PublicID           string `json:"public_id"`
	FileName           string `json:"file_name"`
	CloudinaryResponse []byte `json:"cloudinary_response,omitempty"`
}

// BookService представляет сервис для работы с книгами
type BookService struct {
	cfg               *config.Config
	jwtService        *utils.JWTService
	cloudinaryService *cloudinary.CloudinaryService
}

// NewBookService создает новый экземпляр BookService
func NewBookService(cfg *config.Config, cloudinaryService *cloudinary.CloudinaryService) *BookService {
	return &BookService{
		cfg:               cfg,
		jwtService:        utils.NewJWTService(cfg.JWTSecret),
		cloudinaryService: cloudinaryService,
	}
}

// bookPayload — тело запроса создания и обновления книги
type bookPayload struct {
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Description string         `json:"description"`
	Condition   string         `json:"condition"`
	Intent      string         `json:"intent"`
	Tags        []string       `json:"tags"`
	Status      string         `json:"status"`
	Images      []RequestImage `json:"images"`
}

// validateBookPayload проверяет поля книги, правила совпадают с формой AddBook мобильного клиента
func validateBookPayload(data *bookPayload) string {
	if data.Title == "" {
		return "Название обязательно"
	}
	if data.Author == "" {
		return "Автор обязателен"
	}

	// Проверка валидности status
	if data.Status != models.BookActive && data.Status != models.BookDraft {
		data.Status = models.BookDraft // По умолчанию - черновик
	}

	// Для публикации нужны минимум два изображения (обложка и разворот)
	if data.Status == models.BookActive && len(data.Images) < 2 {
		return "Добавьте минимум два изображения книги"
	}

	if !models.ValidConditions[data.Condition] {
		data.Condition = models.ConditionGood // По умолчанию - хорошее
	}

	if !models.ValidIntents[data.Intent] {
		data.Intent = models.IntentGiveaway // По умолчанию - отдать даром
	}

	return ""
}

// CreateBook обрабатывает создание новой книги
func (s *BookService) CreateBook(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ownerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData bookPayload
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if msg := validateBookPayload(&requestData); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	// Создаем ID для новой книги
	bookID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO books (id, owner_id, title, author, description, condition, intent, tags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, bookID, ownerUUID, requestData.Title, requestData.Author, requestData.Description,
		requestData.Condition, requestData.Intent, requestData.Tags, requestData.Status)

	if err != nil {
		log.Printf("Ошибка вставки книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения книги"})
	}

	if err := insertBookImages(ctx, tx, bookID, requestData.Images); err != nil {
		log.Printf("Ошибка вставки изображений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения изображений"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"book_id": bookID,
		"message": "Книга успешно добавлена",
	})
}

// insertBookImages вставляет изображения книги внутри транзакции, первое становится обложкой
func insertBookImages(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, images []RequestImage) error {
	for i, img := range images {
		isCover := i == 0

		var metadata []byte
		var previewURL string

		// Обрабатываем данные из Cloudinary
		if len(img.CloudinaryResponse) > 0 {
			cloudinaryResp, err := models.ParseCloudinaryResponse(img.CloudinaryResponse)
			if err != nil {
				log.Printf("Ошибка парсинга ответа Cloudinary: %v", err)
			} else {
				previewURL = models.ExtractPreviewURL(cloudinaryResp)
				metadata, _ = models.MarshalMetadata(models.ExtractMetadata(cloudinaryResp))
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO book_images (book_id, url, preview_url, public_id, file_name, is_cover, position, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, bookID, img.URL, previewURL, img.PublicID, img.FileName, isCover, i, metadata)

		if err != nil {
			return err
		}
	}
	return nil
}

// GetMyBooks возвращает список книг текущего пользователя с производным статусом доступности
func (s *BookService) GetMyBooks(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ownerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Параметры фильтрации и пагинации
	status := c.Query("status", "all") // all, active, draft
	limit := 20
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	where := goqu.Ex{"owner_id": ownerUUID}
	if status != "all" {
		where["status"] = status
	}

	query, args, err := dialect.From("books").
		Select("id", "owner_id", "title", "author", "description", "condition", "intent", "tags", "status", "created_at", "updated_at").
		Where(where).
		Order(goqu.I("updated_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		log.Printf("Ошибка построения запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книг"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	books, err := s.queryBooks(ctx, query, args)
	if err != nil {
		log.Printf("Ошибка запроса книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книг"})
	}

	// Общее количество для пагинации
	countQuery, countArgs, _ := dialect.From("books").
		Select(goqu.COUNT("*")).
		Where(where).
		Prepared(true).ToSQL()

	var total int
	if err := db.Pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета книг: %v", err)
		// Игнорируем ошибку, просто не вернем общее количество
	}

	return c.JSON(fiber.Map{
		"books":  books,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetPublicBooks возвращает каталог активных книг других пользователей
func (s *BookService) GetPublicBooks(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	viewerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	limit := 20
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	// Собственные книги в каталог не попадают
	conditions := []goqu.Expression{
		goqu.Ex{"status": models.BookActive},
		goqu.C("owner_id").Neq(viewerUUID),
	}

	// Опциональные фильтры каталога
	if condition := c.Query("condition"); condition != "" && models.ValidConditions[condition] {
		conditions = append(conditions, goqu.Ex{"condition": condition})
	}
	if intent := c.Query("intent"); intent != "" && models.ValidIntents[intent] {
		conditions = append(conditions, goqu.Ex{"intent": intent})
	}
	if tag := c.Query("tag"); tag != "" {
		conditions = append(conditions, goqu.L("? = ANY(tags)", tag))
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		conditions = append(conditions, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}

	query, args, err := dialect.From("books").
		Select("id", "owner_id", "title", "author", "description", "condition", "intent", "tags", "status", "created_at", "updated_at").
		Where(conditions...).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		log.Printf("Ошибка построения запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книг"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	books, err := s.queryBooks(ctx, query, args)
	if err != nil {
		log.Printf("Ошибка запроса книг: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книг"})
	}

	// Добавляем информацию о владельцах
	for i := range books {
		books[i].Owner = getUserInfo(ctx, books[i].OwnerID)
	}

	countQuery, countArgs, _ := dialect.From("books").
		Select(goqu.COUNT("*")).
		Where(conditions...).
		Prepared(true).ToSQL()

	var total int
	if err := db.Pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета книг: %v", err)
	}

	return c.JSON(fiber.Map{
		"books":  books,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// queryBooks выполняет запрос списка книг и дозагружает изображения и производный статус
func (s *BookService) queryBooks(ctx context.Context, query string, args []interface{}) ([]models.Book, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(
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

		book.Images = loadBookImages(ctx, book.ID)

		// Статус доступности всегда вычисляется из заявок, в БД он не хранится
		requests, err := loadBookRequests(ctx, book.ID)
		if err != nil {
			log.Printf("Ошибка запроса заявок книги: %v", err)
		}
		book.Availability = exchange.DeriveStatus(requests)

		books = append(books, book)
	}

	return books, nil
}

// GetBook возвращает детальную информацию о книге
func (s *BookService) GetBook(c fiber.Ctx) error {
	bookID := c.Params("id")
	if bookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	viewerUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var book models.Book
	err = db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, author, description, condition, intent, tags, status, created_at, updated_at
		FROM books
		WHERE id = $1
	`, bookUUID).Scan(
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
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена"})
		}
		log.Printf("Ошибка получения книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книги"})
	}

	// Черновик видит только автор
	if book.Status == models.BookDraft && book.OwnerID != viewerUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этой книге"})
	}

	book.Images = loadBookImages(ctx, bookUUID)

	requests, err := loadBookRequests(ctx, bookUUID)
	if err != nil {
		log.Printf("Ошибка запроса заявок книги: %v", err)
	}
	book.Availability = exchange.DeriveStatus(requests)

	owner := getUserInfo(ctx, book.OwnerID)

	return c.JSON(fiber.Map{
		"book":     book,
		"owner":    owner,
		"is_owner": book.OwnerID == viewerUUID,
	})
}

// UpdateBook обновляет существующую книгу
func (s *BookService) UpdateBook(c fiber.Ctx) error {
	bookID := c.Params("id")
	userIDStr := c.Locals("userID").(string)

	if bookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	userUUID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData bookPayload
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if msg := validateBookPayload(&requestData); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, "SELECT owner_id FROM books WHERE id = $1", bookUUID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена"})
		}
		log.Printf("Ошибка запроса книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книги"})
	}

	// Книгу меняет только владелец
	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к редактированию этой книги"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE books
		SET title = $1, author = $2, description = $3, condition = $4, intent = $5, tags = $6, status = $7, updated_at = NOW()
		WHERE id = $8
	`, requestData.Title, requestData.Author, requestData.Description, requestData.Condition,
		requestData.Intent, requestData.Tags, requestData.Status, bookUUID)

	if err != nil {
		log.Printf("Ошибка обновления книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления книги"})
	}

	// Если есть изображения, заменяем их целиком
	if len(requestData.Images) > 0 {
		_, err = tx.Exec(ctx, "DELETE FROM book_images WHERE book_id = $1", bookUUID)
		if err != nil {
			log.Printf("Ошибка удаления старых изображений: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления изображений"})
		}

		if err := insertBookImages(ctx, tx, bookUUID, requestData.Images); err != nil {
			log.Printf("Ошибка вставки изображения: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения изображений"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"book_id": bookID,
		"message": "Книга успешно обновлена",
	})
}

// DeleteBook удаляет книгу вместе с заявками, изображениями и записями избранного
func (s *BookService) DeleteBook(c fiber.Ctx) error {
	bookID := c.Params("id")
	userIDStr := c.Locals("userID").(string)

	if bookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID книги не указан"})
	}

	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID книги"})
	}

	userUUID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, "SELECT owner_id FROM books WHERE id = $1", bookUUID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Книга не найдена"})
		}
		log.Printf("Ошибка запроса книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения книги"})
	}

	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к удалению этой книги"})
	}

	// Собираем public_id изображений до удаления, чтобы почистить Cloudinary после
	var publicIDs []string
	imgRows, err := db.Pool.Query(ctx, "SELECT public_id FROM book_images WHERE book_id = $1", bookUUID)
	if err == nil {
		for imgRows.Next() {
			var publicID string
			if err := imgRows.Scan(&publicID); err == nil {
				publicIDs = append(publicIDs, publicID)
			}
		}
		imgRows.Close()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Удаление книги обесценивает все заявки на нее - каскад в одной транзакции
	_, err = tx.Exec(ctx, "DELETE FROM requests WHERE book_id = $1", bookUUID)
	if err != nil {
		log.Printf("Ошибка удаления заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления книги"})
	}

	_, err = tx.Exec(ctx, "DELETE FROM saved_books WHERE book_id = $1", bookUUID)
	if err != nil {
		log.Printf("Ошибка удаления из избранного: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления книги"})
	}

	_, err = tx.Exec(ctx, "DELETE FROM book_images WHERE book_id = $1", bookUUID)
	if err != nil {
		log.Printf("Ошибка удаления изображений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления книги"})
	}

	_, err = tx.Exec(ctx, "DELETE FROM books WHERE id = $1", bookUUID)
	if err != nil {
		log.Printf("Ошибка удаления книги: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления книги"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Чистим Cloudinary уже после фиксации, ошибки здесь не критичны
	go s.cloudinaryService.DestroyAssets(context.Background(), publicIDs)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Книга успешно удалена",
	})
}

// loadBookImages получает изображения книги по позиции
func loadBookImages(ctx context.Context, bookID uuid.UUID) []models.BookImage {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, book_id, url, preview_url, public_id, file_name, is_cover, position, metadata, created_at
		FROM book_images
		WHERE book_id = $1
		ORDER BY position ASC
	`, bookID)

	if err != nil {
		log.Printf("Ошибка запроса изображений: %v", err)
		return nil
	}
	defer rows.Close()

	var images []models.BookImage
	for rows.Next() {
		var img models.BookImage
		var metadataBytes []byte

		if err := rows.Scan(
			&img.ID,
			&img.BookID,
			&img.URL,
			&img.PreviewURL,
			&img.PublicID,
			&img.FileName,
			&img.IsCover,
			&img.Position,
			&metadataBytes,
			&img.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования изображения: %v", err)
			continue
		}

		if metadataBytes != nil {
			if err := models.UnmarshalMetadata(metadataBytes, &img.Metadata); err != nil {
				log.Printf("Ошибка разбора метаданных: %v", err)
			}
		}

		images = append(images, img)
	}

	return images
}

// loadBookRequests получает все заявки книги для вычисления доступности
func loadBookRequests(ctx context.Context, bookID uuid.UUID) ([]models.Request, error) {
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
