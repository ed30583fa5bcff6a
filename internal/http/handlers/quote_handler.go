package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/service"
)

// QuoteHandler обслуживает жизненный цикл смет.
type QuoteHandler struct {
	quotes *service.QuoteService
}

// NewQuoteHandler создаёт обработчик смет.
func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Create обрабатывает POST /api/quotes. Доступно только специалистам.
func (h *QuoteHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	role, err := currentUserRole(c)
	if err != nil || role != models.RoleProfessional {
		c.JSON(http.StatusForbidden, gin.H{"error": "сметы могут отправлять только специалисты"})
		return
	}

	var req struct {
		ClientID     uuid.UUID  `json:"client_id" binding:"required"`
		ServiceID    *uuid.UUID `json:"service_id"`
		Title        string     `json:"title" binding:"required"`
		Description  *string    `json:"description"`
		Price        float64    `json:"price" binding:"required"`
		ValidityDays int        `json:"validity_days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	quote, err := h.quotes.Create(c.Request.Context(), service.CreateQuoteInput{
		ProfessionalID: userID,
		ClientID:       req.ClientID,
		ServiceID:      req.ServiceID,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		ValidityDays:   req.ValidityDays,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, quote)
}

// Get обрабатывает GET /api/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.quotes.Get(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// List обрабатывает GET /api/quotes с опциональным фильтром по статусу.
func (h *QuoteHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	limit, offset := paginationParams(c)

	quotes, err := h.quotes.ListForUser(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// Respond обрабатывает POST /api/quotes/:id/respond. Клиент принимает
// или отклоняет смету.
func (h *QuoteHandler) Respond(c *gin.Context) {
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
		Accept *bool `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле accept обязательно"})
		return
	}

	quote, err := h.quotes.Respond(c.Request.Context(), id, userID, *req.Accept)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Cancel обрабатывает POST /api/quotes/:id/cancel. Специалист отзывает смету.
func (h *QuoteHandler) Cancel(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.quotes.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Complete обрабатывает POST /api/quotes/:id/complete.
func (h *QuoteHandler) Complete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.quotes.Complete(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}
