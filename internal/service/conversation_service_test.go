package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) GetOrCreate(ctx context.Context, clientID, professionalID uuid.UUID, serviceID *uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, clientID, professionalID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	return args.Get(0).([]models.Message), args.Error(1)
}

func TestConversationService_Start_SelfChatRejected(t *testing.T) {
	svc := NewConversationService(new(mockConversationRepo), nil)
	userID := uuid.New()

	_, err := svc.Start(context.Background(), userID, userID, nil)
	assert.Error(t, err)
}

func TestConversationService_SendMessage_NotifiesRecipient(t *testing.T) {
	repo := new(mockConversationRepo)
	notifier := new(mockNotifier)
	svc := NewConversationService(repo, notifier)
	ctx := context.Background()

	clientID := uuid.New()
	professionalID := uuid.New()
	conversation := &models.Conversation{ID: uuid.New(), ClientID: clientID, ProfessionalID: professionalID}

	repo.On("GetByID", ctx, conversation.ID).Return(conversation, nil)
	repo.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	notifier.On("BroadcastToUser", professionalID, "message.new", mock.Anything).Return(nil)

	message, err := svc.SendMessage(ctx, conversation.ID, clientID, "Здравствуйте, когда сможете приехать?")
	assert.NoError(t, err)
	assert.Equal(t, models.MessageAuthorUser, message.AuthorType)
	notifier.AssertExpectations(t)
}

func TestConversationService_SendMessage_StrangerForbidden(t *testing.T) {
	repo := new(mockConversationRepo)
	svc := NewConversationService(repo, nil)
	ctx := context.Background()

	conversation := &models.Conversation{ID: uuid.New(), ClientID: uuid.New(), ProfessionalID: uuid.New()}
	repo.On("GetByID", ctx, conversation.ID).Return(conversation, nil)

	_, err := svc.SendMessage(ctx, conversation.ID, uuid.New(), "привет")
	assert.Equal(t, apperror.ErrForbidden, err)
}

func TestConversationService_ListMessages_NotFound(t *testing.T) {
	repo := new(mockConversationRepo)
	svc := NewConversationService(repo, nil)
	ctx := context.Background()

	conversationID := uuid.New()
	repo.On("GetByID", ctx, conversationID).Return(nil, repository.ErrConversationNotFound)

	_, err := svc.ListMessages(ctx, conversationID, uuid.New(), 50, 0)
	assert.True(t, apperror.IsNotFound(err))
}
