package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

// ErrorHandler централизованно превращает ошибки, сложенные в c.Errors,
// в JSON ответ. Внутренние ошибки маскируются, наружу уходит только
// код и сообщение прикладной ошибки.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, code, message := classify(err)

		if status >= http.StatusInternalServerError {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Ошибка обработки запроса")
		}

		c.JSON(status, gin.H{
			"error": message,
			"code":  code,
		})
	}
}

func classify(err error) (int, string, string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, string(appErr.Code), appErr.Message
	}

	switch {
	case errors.Is(err, repository.ErrQuoteNotFound):
		return http.StatusNotFound, string(apperror.ErrCodeNotFound), "смета не найдена"
	case errors.Is(err, repository.ErrAppointmentNotFound):
		return http.StatusNotFound, string(apperror.ErrCodeNotFound), "встреча не найдена"
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, string(apperror.ErrCodeNotFound), "пользователь не найден"
	case errors.Is(err, repository.ErrConversationNotFound):
		return http.StatusNotFound, string(apperror.ErrCodeNotFound), "чат не найден"
	}

	return http.StatusInternalServerError, string(apperror.ErrCodeInternal), "внутренняя ошибка сервера"
}
