package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransaction описывает запись в журнале начислений специалиста.
// Журнал append-only: записи никогда не изменяются и не удаляются,
// на одну смету приходится ровно одна запись (UNIQUE по quote_id).
type WalletTransaction struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	QuoteID      uuid.UUID `db:"quote_id" json:"quote_id"`
	Type         string    `db:"type" json:"type"`
	Amount       float64   `db:"amount" json:"amount"`
	Fee          float64   `db:"fee" json:"fee"`
	NetAmount    float64   `db:"net_amount" json:"net_amount"`
	Description  *string   `db:"description" json:"description,omitempty"`
	CustomerName *string   `db:"customer_name" json:"customer_name,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
