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

var ErrAppointmentNotFound = errors.New("appointment not found")

// AppointmentRepository отвечает за работу с записями к специалистам.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository создаёт новый экземпляр.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, professional_id, client_id, service_id, conversation_id,
	scheduled_date, scheduled_time, duration_minutes, status, notes,
	reminder_24h_sent, reminder_sent, created_at, updated_at`

// Create сохраняет новую запись.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (professional_id, client_id, service_id, conversation_id, scheduled_date, scheduled_time, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		appointment.ProfessionalID,
		appointment.ClientID,
		appointment.ServiceID,
		appointment.ConversationID,
		appointment.ScheduledDate,
		appointment.ScheduledTime,
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Notes,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt); err != nil {
		return fmt.Errorf("appointment repository: create %w", err)
	}
	return nil
}

// GetByID возвращает запись по идентификатору.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointment repository: get by id %w", err)
	}
	return &appointment, nil
}

// ListActiveInRange возвращает неотменённые записи специалиста, чья дата
// попадает в диапазон [startDate, endDate]. Отменённые записи в проверке
// занятости не участвуют.
func (r *AppointmentRepository) ListActiveInRange(ctx context.Context, professionalID uuid.UUID, startDate, endDate time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE professional_id = $1
		  AND status <> 'cancelled'
		  AND scheduled_date BETWEEN $2 AND $3
		ORDER BY scheduled_date, scheduled_time
	`
	if err := r.db.SelectContext(ctx, &appointments, query, professionalID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("appointment repository: list active in range %w", err)
	}
	return appointments, nil
}

// ListByUser возвращает записи, где пользователь является стороной.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE professional_id = $1 OR client_id = $1
		ORDER BY scheduled_date DESC, scheduled_time DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &appointments, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("appointment repository: list by user %w", err)
	}
	return appointments, nil
}

// Cancel отменяет запись. Уже отменённая запись не затрагивается.
func (r *AppointmentRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	query := `
		UPDATE appointments
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING ` + appointmentColumns
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointment repository: cancel %w", err)
	}
	return &appointment, nil
}

// ListDueReminders возвращает неотменённые записи, начинающиеся в окне
// (now, now+window], у которых ещё не взведён соответствующий флаг.
func (r *AppointmentRepository) ListDueReminders(ctx context.Context, now time.Time, window time.Duration, flagColumn string) ([]models.Appointment, error) {
	if flagColumn != "reminder_24h_sent" && flagColumn != "reminder_sent" {
		return nil, fmt.Errorf("appointment repository: unknown reminder flag %q", flagColumn)
	}

	var appointments []models.Appointment
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status <> 'cancelled'
		  AND ` + flagColumn + ` = FALSE
		  AND (scheduled_date + scheduled_time::time) > $1
		  AND (scheduled_date + scheduled_time::time) <= $2
		ORDER BY scheduled_date, scheduled_time
	`
	if err := r.db.SelectContext(ctx, &appointments, query, now, now.Add(window)); err != nil {
		return nil, fmt.Errorf("appointment repository: list due reminders %w", err)
	}
	return appointments, nil
}

// MarkReminderSent взводит флаг напоминания. Флаг одноразовый: условие
// по текущему значению гарантирует, что параллельная проверка не отправит
// напоминание дважды.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, flagColumn string) (bool, error) {
	if flagColumn != "reminder_24h_sent" && flagColumn != "reminder_sent" {
		return false, fmt.Errorf("appointment repository: unknown reminder flag %q", flagColumn)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET `+flagColumn+` = TRUE, updated_at = NOW()
		WHERE id = $1 AND `+flagColumn+` = FALSE
	`, id)
	if err != nil {
		return false, fmt.Errorf("appointment repository: mark reminder sent %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("appointment repository: mark reminder rows affected %w", err)
	}
	return affected > 0, nil
}
