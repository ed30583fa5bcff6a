package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudrin/profi-backend/internal/ai"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
)

// AIHandler обслуживает вспомогательные AI функции для специалистов.
type AIHandler struct {
	client *ai.Client
}

// NewAIHandler создаёт обработчик AI функций.
func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{client: client}
}

// GenerateDescription обрабатывает POST /api/ai/service-description.
func (h *AIHandler) GenerateDescription(c *gin.Context) {
	if _, err := currentUserID(c); err != nil {
		abortUnauthorized(c)
		return
	}
	role, err := currentUserRole(c)
	if err != nil || role != models.RoleProfessional {
		c.JSON(http.StatusForbidden, gin.H{"error": "доступно только специалистам"})
		return
	}

	var req struct {
		Name     string   `json:"name" binding:"required"`
		Keywords []string `json:"keywords"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле name обязательно"})
		return
	}

	description, err := h.client.GenerateServiceDescription(c.Request.Context(), req.Name, req.Keywords)
	if err != nil {
		c.Error(apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "AI сервис недоступен"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"description": description})
}
