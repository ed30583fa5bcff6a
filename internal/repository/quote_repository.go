package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/antonkudrin/profi-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrQuoteStateConflict возвращается, когда условный UPDATE не затронул
	// ни одной строки: смета уже ушла из ожидаемого статуса.
	ErrQuoteStateConflict = errors.New("quote is not in expected status")
)

// QuoteRepository отвечает за работу со сметами.
type QuoteRepository struct {
	db *sqlx.DB
}

// NewQuoteRepository создаёт новый экземпляр.
func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, professional_id, client_id, service_id, conversation_id, title, description,
	price, validity_days, status, client_confirmed, client_confirmed_at,
	expires_at, responded_at, completed_at, created_at, updated_at`

// Create сохраняет новую смету. ExpiresAt уже вычислен сервисом и
// после вставки не пересчитывается.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (professional_id, client_id, service_id, conversation_id, title, description, price, validity_days, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		quote.ProfessionalID,
		quote.ClientID,
		quote.ServiceID,
		quote.ConversationID,
		quote.Title,
		quote.Description,
		quote.Price,
		quote.ValidityDays,
		quote.Status,
		quote.ExpiresAt,
	).Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt); err != nil {
		return fmt.Errorf("quote repository: create %w", err)
	}
	return nil
}

// GetByID возвращает смету по идентификатору.
func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("quote repository: get by id %w", err)
	}
	return &quote, nil
}

// ListByUser возвращает сметы, где пользователь является стороной сделки.
func (r *QuoteRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE (professional_id = $1 OR client_id = $1)`
	args := []interface{}{userID}
	argIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	var quotes []models.Quote
	if err := r.db.SelectContext(ctx, &quotes, query, args...); err != nil {
		return nil, fmt.Errorf("quote repository: list by user %w", err)
	}
	return quotes, nil
}

// UpdateStatusFromPending переводит смету из pending в новый статус и
// проставляет responded_at. Фильтр по текущему статусу делает переход
// атомарным: если смета уже не pending, вернётся ErrQuoteStateConflict.
func (r *QuoteRepository) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, newStatus string) (*models.Quote, error) {
	var quote models.Quote
	query := `
		UPDATE quotes
		SET status = $2, responded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + quoteColumns
	if err := r.db.GetContext(ctx, &quote, query, id, newStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuoteStateConflict
		}
		return nil, fmt.Errorf("quote repository: update status %w", err)
	}
	return &quote, nil
}

// MarkCompleted переводит принятую смету в completed.
func (r *QuoteRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	query := `
		UPDATE quotes
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'accepted'
		RETURNING ` + quoteColumns
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuoteStateConflict
		}
		return nil, fmt.Errorf("quote repository: mark completed %w", err)
	}
	return &quote, nil
}

// ExpirePending массово переводит просроченные pending сметы в expired и
// возвращает затронутые строки. Операция идемпотентна: повторный запуск
// ничего не найдёт, а смета, ушедшая из pending параллельным запросом,
// отфильтруется условием по статусу.
func (r *QuoteRepository) ExpirePending(ctx context.Context, now time.Time) ([]models.Quote, error) {
	var expired []models.Quote
	query := `
		UPDATE quotes
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
		RETURNING ` + quoteColumns
	if err := r.db.SelectContext(ctx, &expired, query, now); err != nil {
		return nil, fmt.Errorf("quote repository: expire pending %w", err)
	}
	return expired, nil
}
