package book

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API книг
func (s *BookService) SetupRoutes(app *fiber.App) {
	// Группа для API книг
	api := app.Group("/api/books")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания книги
	api.Post("/create", s.CreateBook)

	// Маршрут для каталога книг других пользователей
	api.Get("/", s.GetPublicBooks)

	// Маршрут для получения списка своих книг
	api.Get("/my", s.GetMyBooks)

	// Маршрут для получения одной книги по ID
	api.Get("/:id", s.GetBook)

	// Маршрут для обновления книги
	api.Put("/:id", s.UpdateBook)

	// Маршрут для удаления книги
	api.Delete("/:id", s.DeleteBook)
}
