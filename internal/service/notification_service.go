package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/models"
)

// Notifier доставляет событие пользователю по websocket. Доставка
// best-effort: офлайн-пользователь прочитает событие из истории уведомлений.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationRepository описывает зависимости NotificationService от слоя хранилища.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService управляет историей уведомлений пользователя.
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List возвращает уведомления пользователя, последние первыми.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead помечает уведомление прочитанным.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// CreateNotificationForWS сохраняет событие, отправленное через websocket,
// в историю уведомлений пользователя.
func (s *NotificationService) CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Payload: payload,
	}
	return s.repo.Create(ctx, notification)
}
