package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudrin/profi-backend/internal/service"
)

// NotificationHandler обслуживает историю уведомлений.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler создаёт обработчик уведомлений.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List обрабатывает GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	limit, offset := paginationParams(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notifications.List(c.Request.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkAsRead обрабатывает POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if _, err := currentUserID(c); err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllAsRead обрабатывает POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CountUnread обрабатывает GET /api/notifications/unread-count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
