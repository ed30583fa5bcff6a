package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudrin/profi-backend/internal/service"
)

// PaymentHandler обслуживает оплату смет и журнал начислений.
type PaymentHandler struct {
	settlement *service.SettlementService
}

// NewPaymentHandler создаёт обработчик оплат.
func NewPaymentHandler(settlement *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlement: settlement}
}

// Checkout обрабатывает POST /api/quotes/:id/checkout и возвращает
// ссылку на страницу оплаты у провайдера.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.settlement.Checkout(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_url": url})
}

// Verify обрабатывает POST /api/quotes/:id/verify-payment. Клиент зовёт
// его после возврата со страницы оплаты; повторные вызовы безопасны.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.settlement.VerifyPayment(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction обрабатывает GET /api/quotes/:id/transaction.
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := h.settlement.GetTransactionForQuote(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ListTransactions обрабатывает GET /api/wallet/transactions.
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	limit, offset := paginationParams(c)

	transactions, err := h.settlement.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
