package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/service"
)

// ProfileHandler обслуживает профиль текущего пользователя.
type ProfileHandler struct {
	auth *service.AuthService
}

// NewProfileHandler создаёт обработчик профиля.
func NewProfileHandler(auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

// Get обрабатывает GET /api/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	profile, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update обрабатывает PUT /api/profile. CPF/CNPJ, указанный здесь,
// требуется для оплаты смет.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	var req struct {
		DisplayName string     `json:"display_name" binding:"required"`
		Bio         *string    `json:"bio"`
		TaxID       *string    `json:"tax_id"`
		Phone       *string    `json:"phone"`
		Location    *string    `json:"location"`
		Category    *string    `json:"category"`
		PhotoID     *uuid.UUID `json:"photo_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		TaxID:       req.TaxID,
		Phone:       req.Phone,
		Location:    req.Location,
		Category:    req.Category,
		PhotoID:     req.PhotoID,
	}
	if err := h.auth.UpdateProfile(c.Request.Context(), profile); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
