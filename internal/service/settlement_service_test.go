package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/antonkudrin/profi-backend/internal/billing"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) Settle(ctx context.Context, transaction *models.WalletTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *mockWalletRepo) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.WalletTransaction, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *mockWalletRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type mockBillingProvider struct {
	mock.Mock
}

func (m *mockBillingProvider) CreateBilling(ctx context.Context, req billing.CreateBillingRequest) (*billing.Billing, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Billing), args.Error(1)
}

func (m *mockBillingProvider) ListBillings(ctx context.Context) ([]billing.Billing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Billing), args.Error(1)
}

func newSettlementFixture(quotes *mockQuoteRepo, wallet *mockWalletRepo, users *mockUserStore, provider *mockBillingProvider) *SettlementService {
	return NewSettlementService(quotes, wallet, users, provider, nil, nil, 0.10, "https://profi.example/return")
}

func acceptedQuote(clientID uuid.UUID, price float64) *models.Quote {
	return &models.Quote{
		ID:             uuid.New(),
		ClientID:       clientID,
		ProfessionalID: uuid.New(),
		Title:          "Укладка плитки",
		Price:          price,
		Status:         models.QuoteStatusAccepted,
	}
}

func TestSettlementService_Checkout(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	users := new(mockUserStore)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, wallet, users, provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1234.50)
	taxID := "12345678901"

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID, Email: "client@example.com"}, nil)
	users.On("GetProfile", ctx, clientID).Return(&models.Profile{UserID: clientID, DisplayName: "Мария", TaxID: &taxID}, nil)
	provider.On("CreateBilling", ctx, mock.MatchedBy(func(req billing.CreateBillingRequest) bool {
		return len(req.Products) == 1 &&
			req.Products[0].ExternalID == quote.ID.String() &&
			req.Products[0].Price == int64(123450) &&
			req.Metadata["quote_id"] == quote.ID.String() &&
			req.Customer.TaxID == taxID
	})).Return(&billing.Billing{ID: "bill_1", URL: "https://pay.example/bill_1"}, nil)

	url, err := svc.Checkout(ctx, quote.ID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example/bill_1", url)
	provider.AssertExpectations(t)
}

func TestSettlementService_Checkout_MissingTaxID(t *testing.T) {
	quotes := new(mockQuoteRepo)
	users := new(mockUserStore)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), users, new(mockBillingProvider))
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 500)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID}, nil)
	users.On("GetProfile", ctx, clientID).Return(&models.Profile{UserID: clientID, DisplayName: "Мария"}, nil)

	_, err := svc.Checkout(ctx, quote.ID, clientID)
	assert.Equal(t, apperror.ErrMissingTaxID, err)
	assert.True(t, apperror.IsMissingPrecondition(err))
}

func TestSettlementService_Checkout_ProfileLookupFailed(t *testing.T) {
	quotes := new(mockQuoteRepo)
	users := new(mockUserStore)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), users, new(mockBillingProvider))
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 500)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID}, nil)
	users.On("GetProfile", ctx, clientID).Return(nil, errors.New("connection reset"))

	// Сбой чтения профиля — не отсутствие CPF/CNPJ, клиенту нельзя
	// отвечать невыполненным предусловием.
	_, err := svc.Checkout(ctx, quote.ID, clientID)
	assert.Error(t, err)
	assert.False(t, apperror.IsMissingPrecondition(err))
}

func TestSettlementService_Checkout_NotAccepted(t *testing.T) {
	quotes := new(mockQuoteRepo)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), new(mockUserStore), new(mockBillingProvider))
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 500)
	quote.Status = models.QuoteStatusPending

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)

	_, err := svc.Checkout(ctx, quote.ID, clientID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestSettlementService_Checkout_ProviderDown(t *testing.T) {
	quotes := new(mockQuoteRepo)
	users := new(mockUserStore)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), users, provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 500)
	taxID := "12345678901"

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID}, nil)
	users.On("GetProfile", ctx, clientID).Return(&models.Profile{UserID: clientID, TaxID: &taxID}, nil)
	provider.On("CreateBilling", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.Checkout(ctx, quote.ID, clientID)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeUpstreamFailure, appErr.Code)
}

func TestSettlementService_VerifyPayment_Settles(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	users := new(mockUserStore)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, wallet, users, provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return([]billing.Billing{
		{ID: "bill_1", Status: billing.StatusPaid, Metadata: map[string]string{"quote_id": quote.ID.String()}},
	}, nil)
	users.On("GetProfile", ctx, clientID).Return(&models.Profile{UserID: clientID, DisplayName: "Мария"}, nil)
	wallet.On("Settle", ctx, mock.AnythingOfType("*models.WalletTransaction")).Return(nil)

	result, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, 1000.0, result.Transaction.Amount)
	assert.Equal(t, 100.0, result.Transaction.Fee)
	assert.Equal(t, 900.0, result.Transaction.NetAmount)
	assert.Equal(t, quote.ProfessionalID, result.Transaction.UserID)
	assert.Equal(t, models.WalletTransactionTypeCredit, result.Transaction.Type)
	wallet.AssertExpectations(t)
}

func TestSettlementService_VerifyPayment_MatchesByProductExternalID(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	users := new(mockUserStore)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, wallet, users, provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 250)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return([]billing.Billing{
		{ID: "bill_other", Status: billing.StatusPaid, Metadata: map[string]string{"quote_id": uuid.NewString()}},
		{ID: "bill_1", Status: billing.StatusPaid, Products: []billing.Product{{ExternalID: quote.ID.String()}}},
	}, nil)
	users.On("GetProfile", ctx, clientID).Return(nil, errors.New("no profile"))
	wallet.On("Settle", ctx, mock.AnythingOfType("*models.WalletTransaction")).Return(nil)

	result, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.NoError(t, err)
	assert.NotNil(t, result.Transaction)
	assert.Nil(t, result.Transaction.CustomerName)
}

func TestSettlementService_VerifyPayment_CompletedQuoteRejected(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, wallet, new(mockUserStore), provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)
	quote.Status = models.QuoteStatusCompleted

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)

	// Смета завершена до оплаты: это не "уже начислено", а конфликт
	// состояния — без обращения к провайдеру и без записи в журнал.
	_, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.True(t, apperror.IsInvalidState(err))
	provider.AssertNotCalled(t, "ListBillings", mock.Anything)
	wallet.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestSettlementService_VerifyPayment_AlreadyConfirmed(t *testing.T) {
	quotes := new(mockQuoteRepo)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), new(mockUserStore), new(mockBillingProvider))
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)
	quote.ClientConfirmed = true

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)

	result, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Nil(t, result.Transaction)
}

func TestSettlementService_VerifyPayment_ConcurrentSettle(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	users := new(mockUserStore)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, wallet, users, provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return([]billing.Billing{
		{ID: "bill_1", Status: billing.StatusPaid, Metadata: map[string]string{"quote_id": quote.ID.String()}},
	}, nil)
	users.On("GetProfile", ctx, clientID).Return(&models.Profile{UserID: clientID, DisplayName: "Мария"}, nil)
	// Параллельный запрос успел провести начисление первым.
	wallet.On("Settle", ctx, mock.AnythingOfType("*models.WalletTransaction")).Return(repository.ErrAlreadySettled)

	result, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
}

func TestSettlementService_VerifyPayment_NotPaidYet(t *testing.T) {
	quotes := new(mockQuoteRepo)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), new(mockUserStore), provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return([]billing.Billing{
		{ID: "bill_1", Status: billing.StatusPending, Metadata: map[string]string{"quote_id": quote.ID.String()}},
	}, nil)

	_, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.True(t, apperror.IsNotYetSettled(err))
}

func TestSettlementService_VerifyPayment_BillingNotFound(t *testing.T) {
	quotes := new(mockQuoteRepo)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), new(mockUserStore), provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return([]billing.Billing{}, nil)

	_, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	assert.Equal(t, apperror.ErrBillingNotFound, err)
}

func TestSettlementService_VerifyPayment_ProviderDown(t *testing.T) {
	quotes := new(mockQuoteRepo)
	provider := new(mockBillingProvider)
	svc := newSettlementFixture(quotes, new(mockWalletRepo), new(mockUserStore), provider)
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	provider.On("ListBillings", ctx).Return(nil, errors.New("timeout"))

	_, err := svc.VerifyPayment(ctx, quote.ID, clientID)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeUpstreamFailure, appErr.Code)
}

func TestSettlementService_FeeRounding(t *testing.T) {
	assert.Equal(t, 33.33, round2(333.33*0.1))
	assert.Equal(t, 0.01, round2(0.005))
	assert.Equal(t, 299.97, round2(333.30-33.33))
}

func TestSettlementService_GetTransactionForQuote_NotSettled(t *testing.T) {
	quotes := new(mockQuoteRepo)
	wallet := new(mockWalletRepo)
	svc := newSettlementFixture(quotes, wallet, new(mockUserStore), new(mockBillingProvider))
	ctx := context.Background()

	clientID := uuid.New()
	quote := acceptedQuote(clientID, 1000)

	quotes.On("GetByID", ctx, quote.ID).Return(quote, nil)
	wallet.On("GetByQuoteID", ctx, quote.ID).Return(nil, repository.ErrTransactionNotFound)

	_, err := svc.GetTransactionForQuote(ctx, quote.ID, clientID)
	assert.True(t, apperror.IsNotFound(err))
}
