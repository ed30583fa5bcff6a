package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/http/middleware"
)

var errUserNotInContext = errors.New("пользователь не найден в контексте")

// currentUserID извлекает userID из контекста.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errUserNotInContext
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errUserNotInContext
	}

	return userID, nil
}

// currentUserRole извлекает роль пользователя из контекста.
func currentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", errUserNotInContext
	}

	role, ok := raw.(string)
	if !ok {
		return "", errUserNotInContext
	}

	return role, nil
}

// parseUUIDParam разбирает UUID из параметра пути.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "параметр " + name + " должен быть валидным UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// paginationParams читает limit/offset из query string.
func paginationParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// abortUnauthorized завершает запрос без пользователя в контексте.
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
}
