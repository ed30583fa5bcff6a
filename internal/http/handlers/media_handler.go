package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudrin/profi-backend/internal/service"
)

// MediaHandler обслуживает загрузку изображений.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler создаёт обработчик медиафайлов.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload обрабатывает POST /api/media. Тип файла проверяется по
// сигнатуре содержимого; заявленный Content-Type игнорируется.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле file обязательно"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать файл"})
		return
	}
	defer file.Close()

	media, err := h.media.Upload(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, media)
}

// Get обрабатывает GET /api/media/:id.
func (h *MediaHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	media, err := h.media.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, media)
}

// Delete обрабатывает DELETE /api/media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.media.Delete(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
