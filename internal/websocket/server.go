package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Клиенты подключаются из мобильного приложения, проверка Origin не требуется
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server принимает WebSocket-соединения на отдельном HTTP-порту
type Server struct {
	manager    *Manager
	jwtService *utils.JWTService
	httpServer *http.Server
}

// NewServer создает WebSocket-сервер поверх менеджера соединений
func NewServer(manager *Manager, jwtService *utils.JWTService, port string) *Server {
	s := &Server{
		manager:    manager,
		jwtService: jwtService,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleConnection)

	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return s
}

// Start запускает прослушивание WebSocket-порта, блокирует текущую горутину
func (s *Server) Start() error {
	log.Printf("✅ WebSocket сервер запущен на порту %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown останавливает сервер и закрывает все соединения
func (s *Server) Shutdown() {
	s.manager.Shutdown()
	s.httpServer.Close()
}

// handleConnection аутентифицирует клиента и переводит соединение в WebSocket.
// Браузерный WebSocket API не позволяет задать заголовки, токен передается в query
func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := s.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := NewClient(userID, conn, s.manager)
	client.Start()
}
