package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/billing"
	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

// WalletRepository описывает зависимости SettlementService от журнала начислений.
type WalletRepository interface {
	Settle(ctx context.Context, transaction *models.WalletTransaction) error
	GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.WalletTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
}

// BillingProvider описывает внешний платёжный провайдер.
type BillingProvider interface {
	CreateBilling(ctx context.Context, req billing.CreateBillingRequest) (*billing.Billing, error)
	ListBillings(ctx context.Context) ([]billing.Billing, error)
}

// SettlementUserStore отдаёт данные плательщика для счёта.
type SettlementUserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// SettlementService проводит оплату смет: выставляет счёт у провайдера,
// сверяет его статус и начисляет специалисту сумму за вычетом комиссии.
type SettlementService struct {
	quotes        QuoteRepository
	wallet        WalletRepository
	users         SettlementUserStore
	provider      BillingProvider
	conversations ConversationStore
	notifier      Notifier
	feeRate       float64
	returnURL     string
}

// NewSettlementService создаёт сервис оплаты смет.
func NewSettlementService(
	quotes QuoteRepository,
	wallet WalletRepository,
	users SettlementUserStore,
	provider BillingProvider,
	conversations ConversationStore,
	notifier Notifier,
	feeRate float64,
	returnURL string,
) *SettlementService {
	return &SettlementService{
		quotes:        quotes,
		wallet:        wallet,
		users:         users,
		provider:      provider,
		conversations: conversations,
		notifier:      notifier,
		feeRate:       feeRate,
		returnURL:     returnURL,
	}
}

// Checkout выставляет у провайдера PIX счёт по принятой смете и возвращает
// ссылку на оплату. Счёт привязывается к смете через metadata.quote_id и
// externalId продукта. Требует заполненного CPF/CNPJ в профиле клиента.
func (s *SettlementService) Checkout(ctx context.Context, quoteID, userID uuid.UUID) (string, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return "", apperror.ErrQuoteNotFound
		}
		return "", fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != userID {
		return "", apperror.ErrForbidden
	}
	if quote.Status != models.QuoteStatusAccepted {
		return "", apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("оплатить можно только принятую смету, текущий статус %q", quote.Status))
	}

	user, err := s.users.GetByID(ctx, quote.ClientID)
	if err != nil {
		return "", fmt.Errorf("get client: %w", err)
	}
	profile, err := s.users.GetProfile(ctx, quote.ClientID)
	if err != nil {
		return "", fmt.Errorf("get client profile: %w", err)
	}
	if profile.TaxID == nil || *profile.TaxID == "" {
		return "", apperror.ErrMissingTaxID
	}

	req := billing.CreateBillingRequest{
		Products: []billing.Product{{
			ExternalID: quote.ID.String(),
			Name:       quote.Title,
			Quantity:   1,
			Price:      int64(math.Round(quote.Price * 100)),
		}},
		ReturnURL:     s.returnURL,
		CompletionURL: s.returnURL,
		Customer: billing.Customer{
			Name:  profile.DisplayName,
			TaxID: *profile.TaxID,
			Email: user.Email,
		},
		Metadata: map[string]string{"quote_id": quote.ID.String()},
	}

	created, err := s.provider.CreateBilling(ctx, req)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "платёжный провайдер недоступен")
	}

	logger.Log.WithFields(map[string]interface{}{
		"quote_id":   quote.ID,
		"billing_id": created.ID,
	}).Info("Счёт на оплату сметы создан")

	return created.URL, nil
}

// VerifyResult описывает итог проверки оплаты.
type VerifyResult struct {
	AlreadyProcessed bool                      `json:"alreadyProcessed"`
	Transaction      *models.WalletTransaction `json:"transaction,omitempty"`
}

// VerifyPayment сверяет статус счёта у провайдера и при подтверждённой
// оплате начисляет специалисту сумму сметы за вычетом комиссии платформы.
// Начисление строго однократное: повторные вызовы возвращают
// AlreadyProcessed без новых записей в журнале.
func (s *SettlementService) VerifyPayment(ctx context.Context, quoteID, userID uuid.UUID) (*VerifyResult, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != userID && quote.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}
	if quote.ClientConfirmed {
		return &VerifyResult{AlreadyProcessed: true}, nil
	}
	// Подтверждение возможно только пока смета принята: нулевые строки
	// в условном UPDATE репозитория означают "уже начислено", поэтому
	// любой другой статус отсеиваем до обращения к провайдеру.
	if quote.Status != models.QuoteStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("начисление возможно только по принятой смете, текущий статус %q", quote.Status))
	}

	billings, err := s.provider.ListBillings(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "не удалось получить список счетов у провайдера")
	}

	bill := findBillingForQuote(billings, quote.ID.String())
	if bill == nil {
		return nil, apperror.ErrBillingNotFound
	}
	if bill.Status != billing.StatusPaid {
		return nil, apperror.ErrNotYetSettled
	}

	fee := round2(quote.Price * s.feeRate)
	net := round2(quote.Price - fee)
	description := fmt.Sprintf("Оплата сметы «%s»", quote.Title)

	transaction := &models.WalletTransaction{
		UserID:      quote.ProfessionalID,
		QuoteID:     quote.ID,
		Type:        models.WalletTransactionTypeCredit,
		Amount:      quote.Price,
		Fee:         fee,
		NetAmount:   net,
		Description: &description,
		Status:      models.WalletTransactionStatusCompleted,
	}
	if profile, err := s.users.GetProfile(ctx, quote.ClientID); err == nil {
		transaction.CustomerName = &profile.DisplayName
	}

	if err := s.wallet.Settle(ctx, transaction); err != nil {
		if errors.Is(err, repository.ErrAlreadySettled) {
			return &VerifyResult{AlreadyProcessed: true}, nil
		}
		return nil, fmt.Errorf("settle quote payment: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"quote_id":   quote.ID,
		"amount":     quote.Price,
		"fee":        fee,
		"net_amount": net,
	}).Info("Оплата сметы подтверждена, начисление проведено")

	if quote.ConversationID != nil && s.conversations != nil {
		content := fmt.Sprintf("Оплата сметы «%s» подтверждена", quote.Title)
		if _, err := s.conversations.CreateSystemMessage(ctx, *quote.ConversationID, content); err != nil {
			logger.Log.WithError(err).WithField("quote_id", quote.ID).Warn("Не удалось создать системное сообщение")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.BroadcastToUser(quote.ProfessionalID, "quote.paid", transaction); err != nil {
			logger.Log.WithError(err).WithField("user_id", quote.ProfessionalID).Debug("Не удалось отправить уведомление")
		}
	}

	return &VerifyResult{Transaction: transaction}, nil
}

// GetTransactionForQuote возвращает запись журнала по смете.
func (s *SettlementService) GetTransactionForQuote(ctx context.Context, quoteID, userID uuid.UUID) (*models.WalletTransaction, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != userID && quote.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}

	transaction, err := s.wallet.GetByQuoteID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "начисление по смете не найдено")
		}
		return nil, fmt.Errorf("get wallet transaction: %w", err)
	}
	return transaction, nil
}

// ListTransactions возвращает журнал начислений пользователя.
func (s *SettlementService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.wallet.ListByUser(ctx, userID, limit, offset)
}

// findBillingForQuote ищет счёт по корреляционному ключу: metadata.quote_id
// или externalId любого продукта.
func findBillingForQuote(billings []billing.Billing, quoteID string) *billing.Billing {
	for i := range billings {
		b := &billings[i]
		if b.Metadata["quote_id"] == quoteID {
			return b
		}
		for _, product := range b.Products {
			if product.ExternalID == quoteID {
				return b
			}
		}
	}
	return nil
}

// round2 округляет денежную сумму до центов.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
