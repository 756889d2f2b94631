package request

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для заявок
func (s *RequestService) SetupRoutes(app *fiber.App) {
	requestGroup := app.Group("/api/requests")
	requestGroup.Use(middleware.AuthMiddleware(s.jwtService))

	requestGroup.Post("/", s.CreateRequest)
	requestGroup.Get("/", s.GetMyRequests)
	requestGroup.Get("/approved", s.GetApprovedRequests)
	requestGroup.Put("/:id/approve", s.ApproveRequest)
	requestGroup.Put("/:id/decline", s.DeclineRequest)
}
