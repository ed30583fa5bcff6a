package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/repository/common"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository отвечает за чаты и сообщения.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт новый экземпляр.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate возвращает чат пары клиент-специалист, создавая его при отсутствии.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, clientID, professionalID uuid.UUID, serviceID *uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	query := `
		INSERT INTO conversations (client_id, professional_id, service_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, professional_id) DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING id, client_id, professional_id, service_id, created_at
	`
	if err := r.db.GetContext(ctx, &conversation, query, clientID, professionalID, serviceID); err != nil {
		return nil, fmt.Errorf("conversation repository: get or create %w", err)
	}
	return &conversation, nil
}

// GetByID возвращает чат по идентификатору.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, r.db, "conversations", id, ErrConversationNotFound)
}

// ListByUser возвращает чаты пользователя.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var conversations []models.Conversation
	query := `
		SELECT * FROM conversations
		WHERE client_id = $1 OR professional_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &conversations, query, userID); err != nil {
		return nil, fmt.Errorf("conversation repository: list by user %w", err)
	}
	return conversations, nil
}

// CreateMessage сохраняет сообщение в чате.
func (r *ConversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, author_type, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		message.ConversationID,
		message.AuthorType,
		message.AuthorID,
		message.Content,
	).Scan(&message.ID, &message.CreatedAt); err != nil {
		return fmt.Errorf("conversation repository: create message %w", err)
	}
	return nil
}

// CreateSystemMessage сохраняет системное сообщение платформы в чате.
func (r *ConversationRepository) CreateSystemMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conversationID,
		AuthorType:     models.MessageAuthorSystem,
		Content:        content,
	}
	if err := r.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages возвращает сообщения чата в хронологическом порядке.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list messages %w", err)
	}
	return messages, nil
}
