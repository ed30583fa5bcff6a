package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
	"github.com/antonkudrin/profi-backend/internal/validation"
)

// ConversationRepository описывает зависимости ConversationService от слоя хранилища.
type ConversationRepository interface {
	GetOrCreate(ctx context.Context, clientID, professionalID uuid.UUID, serviceID *uuid.UUID) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// ConversationService управляет чатами между клиентами и специалистами.
type ConversationService struct {
	repo     ConversationRepository
	notifier Notifier
}

// NewConversationService создаёт сервис чатов.
func NewConversationService(repo ConversationRepository, notifier Notifier) *ConversationService {
	return &ConversationService{repo: repo, notifier: notifier}
}

// Start открывает (или возвращает существующий) чат клиента со специалистом.
func (s *ConversationService) Start(ctx context.Context, clientID, professionalID uuid.UUID, serviceID *uuid.UUID) (*models.Conversation, error) {
	if clientID == professionalID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя открыть чат с самим собой")
	}
	conversation, err := s.repo.GetOrCreate(ctx, clientID, professionalID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	return conversation, nil
}

// ListForUser возвращает чаты пользователя.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// SendMessage отправляет сообщение в чат от имени участника.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, authorID uuid.UUID, content string) (*models.Message, error) {
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	conversation, err := s.getForParticipant(ctx, conversationID, authorID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversationID,
		AuthorType:     models.MessageAuthorUser,
		AuthorID:       &authorID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	recipient := conversation.ProfessionalID
	if authorID == conversation.ProfessionalID {
		recipient = conversation.ClientID
	}
	if s.notifier != nil {
		_ = s.notifier.BroadcastToUser(recipient, "message.new", message)
	}

	return message, nil
}

// ListMessages возвращает сообщения чата, последние первыми.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, err := s.getForParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

func (s *ConversationService) getForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "чат не найден")
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation.ClientID != userID && conversation.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}
	return conversation, nil
}
