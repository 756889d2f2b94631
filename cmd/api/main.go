package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/services/auth"
	"github.com/rajivgeraev/bookswap-api/internal/services/book"
	"github.com/rajivgeraev/bookswap-api/internal/services/chat"
	"github.com/rajivgeraev/bookswap-api/internal/services/cloudinary"
	"github.com/rajivgeraev/bookswap-api/internal/services/request"
	"github.com/rajivgeraev/bookswap-api/internal/services/saved"
	"github.com/rajivgeraev/bookswap-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "BookSwap API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Менеджер WebSocket-соединений общий для всех сервисов
	wsManager := websocket.NewManager()

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)
	bookService := book.NewBookService(cfg, cloudinaryService)
	requestService := request.NewRequestService(cfg, wsManager)
	savedService := saved.NewSavedService(cfg)
	chatService := chat.NewChatService(cfg, wsManager)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)
	bookService.SetupRoutes(app)
	requestService.SetupRoutes(app)
	savedService.SetupRoutes(app)
	chatService.SetupRoutes(app)

	// WebSocket-сервер работает на отдельном порту:
	// gorilla/websocket не умеет апгрейдить соединения fasthttp
	wsServer := websocket.NewServer(wsManager, authService.GetJWTService(), cfg.WSPort)
	defer wsServer.Shutdown()

	go func() {
		if err := wsServer.Start(); err != nil {
			log.Printf("⚠️ WebSocket сервер остановлен: %v", err)
		}
	}()

	// Запускаем сервер
	log.Println("✅ BookSwap API запущен на порту 8080")
	log.Fatal(app.Listen(":8080"))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
