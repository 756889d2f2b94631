package saved

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сохраненных книг
func (s *SavedService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/saved")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetSavedBooks)
	api.Post("/", s.AddToSaved)
	api.Delete("/:id", s.RemoveFromSaved)
	api.Get("/:id/check", s.CheckSaved)
}
