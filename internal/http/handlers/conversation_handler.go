package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/service"
)

// ConversationHandler обслуживает чаты и сообщения.
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler создаёт обработчик чатов.
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Start обрабатывает POST /api/conversations. Клиент открывает чат
// со специалистом; повторный вызов возвращает существующий чат.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	role, err := currentUserRole(c)
	if err != nil || role != models.RoleClient {
		c.JSON(http.StatusForbidden, gin.H{"error": "чат открывает клиент"})
		return
	}

	var req struct {
		ProfessionalID uuid.UUID  `json:"professional_id" binding:"required"`
		ServiceID      *uuid.UUID `json:"service_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	conversation, err := h.conversations.Start(c.Request.Context(), userID, req.ProfessionalID, req.ServiceID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// List обрабатывает GET /api/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	conversations, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ListMessages обрабатывает GET /api/conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := paginationParams(c)

	messages, err := h.conversations.ListMessages(c.Request.Context(), id, userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage обрабатывает POST /api/conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле content обязательно"})
		return
	}

	message, err := h.conversations.SendMessage(c.Request.Context(), id, userID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}
