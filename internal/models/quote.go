package models

import (
	"time"

	"github.com/google/uuid"
)

// Quote описывает смету — ценовое предложение специалиста клиенту.
type Quote struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	ClientID       uuid.UUID  `db:"client_id" json:"client_id"`
	ServiceID      *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	ConversationID *uuid.UUID `db:"conversation_id" json:"conversation_id,omitempty"`
	Title          string     `db:"title" json:"title"`
	Description    *string    `db:"description" json:"description,omitempty"`
	Price          float64    `db:"price" json:"price"`
	ValidityDays   int        `db:"validity_days" json:"validity_days"`
	Status         string     `db:"status" json:"status"`
	// Подтверждение клиента выставляется только после проверенной оплаты
	// и не совпадает со статусом сметы.
	ClientConfirmed   bool       `db:"client_confirmed" json:"client_confirmed"`
	ClientConfirmedAt *time.Time `db:"client_confirmed_at" json:"client_confirmed_at,omitempty"`
	// ExpiresAt фиксируется при создании и никогда не пересчитывается.
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, находится ли смета в терминальном статусе.
func (q *Quote) IsTerminal() bool {
	switch q.Status {
	case QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled, QuoteStatusCompleted:
		return true
	}
	return false
}
