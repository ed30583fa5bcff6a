package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/service"
	"github.com/antonkudrin/profi-backend/internal/ws"
)

// WSHandler апгрейдит HTTP соединение до WebSocket.
// Токен передаётся query параметром: браузерный WebSocket API
// не позволяет выставить заголовок Authorization.
type WSHandler struct {
	hub            *ws.Hub
	tokens         *service.TokenManager
	allowedOrigins map[string]struct{}
}

// NewWSHandler создаёт обработчик WebSocket подключений.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = struct{}{}
	}
	return &WSHandler{hub: hub, tokens: tokens, allowedOrigins: origins}
}

// Handle обрабатывает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "требуется токен"})
		return
	}

	userID, _, err := h.tokens.ParseAccess(token)
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := h.allowedOrigins[origin]
			return ok
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("Не удалось установить WebSocket соединение")
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)
	client.Run(c.Request.Context())
}
