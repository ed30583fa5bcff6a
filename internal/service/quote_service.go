package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/ai"
	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
	"github.com/antonkudrin/profi-backend/internal/validation"
)

// QuoteRepository описывает зависимости QuoteService от слоя хранилища.
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Quote, error)
	UpdateStatusFromPending(ctx context.Context, id uuid.UUID, newStatus string) (*models.Quote, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ExpirePending(ctx context.Context, now time.Time) ([]models.Quote, error)
}

// ConversationStore создаёт чаты и системные сообщения о событиях смет.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, clientID, professionalID uuid.UUID, serviceID *uuid.UUID) (*models.Conversation, error)
	CreateSystemMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error)
}

// Moderator проверяет текст сметы перед публикацией.
type Moderator interface {
	ModerateContent(ctx context.Context, content, contentType string) (*ai.ModerationResult, error)
}

// QuoteService управляет жизненным циклом смет.
type QuoteService struct {
	repo          QuoteRepository
	conversations ConversationStore
	moderator     Moderator
	notifier      Notifier
}

// NewQuoteService создаёт сервис смет. moderator и notifier опциональны.
func NewQuoteService(repo QuoteRepository, conversations ConversationStore, moderator Moderator, notifier Notifier) *QuoteService {
	return &QuoteService{
		repo:          repo,
		conversations: conversations,
		moderator:     moderator,
		notifier:      notifier,
	}
}

// CreateQuoteInput содержит данные новой сметы.
type CreateQuoteInput struct {
	ProfessionalID uuid.UUID
	ClientID       uuid.UUID
	ServiceID      *uuid.UUID
	Title          string
	Description    *string
	Price          float64
	ValidityDays   int
}

// Create создаёт смету в статусе pending. Срок действия фиксируется
// в момент создания: expires_at = created_at + validity_days.
func (s *QuoteService) Create(ctx context.Context, input CreateQuoteInput) (*models.Quote, error) {
	if err := validation.ValidateQuoteTitle(input.Title); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateQuoteDescription(input.Description); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if input.Price <= 0 || input.Price > validation.MaxPrice {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная цена сметы")
	}
	if input.ValidityDays <= 0 || input.ValidityDays > validation.MaxValidityDays {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный срок действия сметы")
	}
	if input.ProfessionalID == input.ClientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя отправить смету самому себе")
	}

	if s.moderator != nil {
		text := input.Title
		if input.Description != nil {
			text += "\n" + *input.Description
		}
		result, err := s.moderator.ModerateContent(ctx, text, "quote")
		if err == nil && !result.Approved {
			reason := "контент не прошёл модерацию"
			if result.Reason != nil {
				reason = *result.Reason
			}
			return nil, apperror.New(apperror.ErrCodeValidation, reason)
		}
	}

	conversation, err := s.conversations.GetOrCreate(ctx, input.ClientID, input.ProfessionalID, input.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	quote := &models.Quote{
		ProfessionalID: input.ProfessionalID,
		ClientID:       input.ClientID,
		ServiceID:      input.ServiceID,
		ConversationID: &conversation.ID,
		Title:          input.Title,
		Description:    input.Description,
		Price:          input.Price,
		ValidityDays:   input.ValidityDays,
		Status:         models.QuoteStatusPending,
		ExpiresAt:      time.Now().UTC().AddDate(0, 0, input.ValidityDays),
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.postSystemMessage(ctx, quote, fmt.Sprintf("Смета «%s» на сумму %.2f отправлена клиенту", quote.Title, quote.Price))
	s.notify(quote.ClientID, "quote.created", quote)

	return quote, nil
}

// Get возвращает смету, доступную только её участникам.
func (s *QuoteService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != userID && quote.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}
	return quote, nil
}

// ListForUser возвращает сметы пользователя с опциональным фильтром по статусу.
func (s *QuoteService) ListForUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Quote, error) {
	if status != "" {
		if _, ok := models.ValidQuoteStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус сметы")
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, status, limit, offset)
}

// Respond принимает или отклоняет смету. Доступно только клиенту
// и только пока смета в статусе pending.
func (s *QuoteService) Respond(ctx context.Context, id, clientID uuid.UUID, accept bool) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}

	newStatus := models.QuoteStatusAccepted
	if !accept {
		newStatus = models.QuoteStatusRejected
	}

	updated, err := s.repo.UpdateStatusFromPending(ctx, id, newStatus)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteStateConflict) {
			return nil, apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("смета в статусе %q, ответ на неё уже невозможен", quote.Status))
		}
		return nil, fmt.Errorf("update quote status: %w", err)
	}

	if accept {
		s.postSystemMessage(ctx, updated, fmt.Sprintf("Клиент принял смету «%s»", updated.Title))
		s.notify(updated.ProfessionalID, "quote.accepted", updated)
	} else {
		s.postSystemMessage(ctx, updated, fmt.Sprintf("Клиент отклонил смету «%s»", updated.Title))
		s.notify(updated.ProfessionalID, "quote.rejected", updated)
	}

	return updated, nil
}

// Cancel отзывает смету. Доступно только её автору и только из pending.
func (s *QuoteService) Cancel(ctx context.Context, id, professionalID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ProfessionalID != professionalID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.repo.UpdateStatusFromPending(ctx, id, models.QuoteStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteStateConflict) {
			return nil, apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("смета в статусе %q, отозвать её уже нельзя", quote.Status))
		}
		return nil, fmt.Errorf("cancel quote: %w", err)
	}

	s.postSystemMessage(ctx, updated, fmt.Sprintf("Специалист отозвал смету «%s»", updated.Title))
	s.notify(updated.ClientID, "quote.cancelled", updated)

	return updated, nil
}

// Complete закрывает принятую смету после выполнения работ.
// Доступно только специалисту и только из статуса accepted.
func (s *QuoteService) Complete(ctx context.Context, id, professionalID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ProfessionalID != professionalID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteStateConflict) {
			return nil, apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("завершить можно только принятую смету, текущий статус %q", quote.Status))
		}
		return nil, fmt.Errorf("complete quote: %w", err)
	}

	s.postSystemMessage(ctx, updated, fmt.Sprintf("Работы по смете «%s» завершены", updated.Title))
	s.notify(updated.ClientID, "quote.completed", updated)

	return updated, nil
}

// ExpireQuotes переводит просроченные pending сметы в expired.
// Вызов идемпотентен: переведённая смета под фильтр больше не попадает.
func (s *QuoteService) ExpireQuotes(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpirePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire pending quotes: %w", err)
	}

	for i := range expired {
		quote := &expired[i]
		s.postSystemMessage(ctx, quote, fmt.Sprintf("Срок действия сметы «%s» истёк", quote.Title))
		s.notify(quote.ClientID, "quote.expired", quote)
		s.notify(quote.ProfessionalID, "quote.expired", quote)
	}

	return len(expired), nil
}

// postSystemMessage публикует системное сообщение в чат сметы.
// Ошибки не прерывают основную операцию.
func (s *QuoteService) postSystemMessage(ctx context.Context, quote *models.Quote, content string) {
	if quote.ConversationID == nil {
		return
	}
	if _, err := s.conversations.CreateSystemMessage(ctx, *quote.ConversationID, content); err != nil {
		logger.Log.WithError(err).WithField("quote_id", quote.ID).Warn("Не удалось создать системное сообщение")
	}
}

func (s *QuoteService) notify(userID uuid.UUID, event string, quote *models.Quote) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, quote); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}
