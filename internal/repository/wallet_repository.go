package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/repository/common"
)

var (
	// ErrAlreadySettled возвращается при попытке провести повторное
	// зачисление по смете, у которой оно уже состоялось.
	ErrAlreadySettled      = errors.New("quote already settled")
	ErrTransactionNotFound = errors.New("wallet transaction not found")
)

// uniqueViolation код ошибки PostgreSQL для нарушения UNIQUE.
const uniqueViolation = "23505"

// WalletRepository отвечает за журнал начислений и проведение зачислений.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository создаёт новый экземпляр.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Settle подтверждает оплату сметы и фиксирует начисление специалисту.
// Обновление флага client_confirmed и вставка записи журнала выполняются
// в одной транзакции, поэтому частичное завершение невозможно. Повторный
// вызов упирается либо в условный UPDATE (client_confirmed уже TRUE),
// либо в UNIQUE(quote_id) журнала — в обоих случаях ErrAlreadySettled.
func (r *WalletRepository) Settle(ctx context.Context, transaction *models.WalletTransaction) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE quotes
			SET client_confirmed = TRUE, client_confirmed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'accepted' AND client_confirmed = FALSE
		`, transaction.QuoteID)
		if err != nil {
			return fmt.Errorf("wallet repository: confirm quote %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("wallet repository: confirm quote rows affected %w", err)
		}
		if affected == 0 {
			return ErrAlreadySettled
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO wallet_transactions (user_id, quote_id, type, amount, fee, net_amount, description, customer_name, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`,
			transaction.UserID,
			transaction.QuoteID,
			transaction.Type,
			transaction.Amount,
			transaction.Fee,
			transaction.NetAmount,
			transaction.Description,
			transaction.CustomerName,
			transaction.Status,
		).Scan(&transaction.ID, &transaction.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				return ErrAlreadySettled
			}
			return fmt.Errorf("wallet repository: insert transaction %w", err)
		}

		return nil
	})
}

// GetByQuoteID возвращает запись журнала по смете.
func (r *WalletRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.WalletTransaction, error) {
	var transaction models.WalletTransaction
	query := `SELECT * FROM wallet_transactions WHERE quote_id = $1`
	if err := r.db.GetContext(ctx, &transaction, query, quoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("wallet repository: get by quote id %w", err)
	}
	return &transaction, nil
}

// ListByUser возвращает журнал начислений пользователя.
func (r *WalletRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	var transactions []models.WalletTransaction
	query := `
		SELECT * FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("wallet repository: list by user %w", err)
	}
	return transactions, nil
}
