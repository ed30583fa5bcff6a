package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
	"github.com/antonkudrin/profi-backend/internal/validation"
)

// Колонки-флаги напоминаний. Белый список продублирован в репозитории.
const (
	reminderFlag24h  = "reminder_24h_sent"
	reminderFlagSoon = "reminder_sent"
)

// AppointmentRepository описывает зависимости AppointmentService от слоя хранилища.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListActiveInRange(ctx context.Context, professionalID uuid.UUID, startDate, endDate time.Time) ([]models.Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListDueReminders(ctx context.Context, now time.Time, window time.Duration, flagColumn string) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, flagColumn string) (bool, error)
}

// AppointmentService управляет записями к специалистам и их расписанием.
type AppointmentService struct {
	repo          AppointmentRepository
	conversations ConversationStore
	notifier      Notifier
}

// NewAppointmentService создаёт сервис записей. notifier опционален.
func NewAppointmentService(repo AppointmentRepository, conversations ConversationStore, notifier Notifier) *AppointmentService {
	return &AppointmentService{
		repo:          repo,
		conversations: conversations,
		notifier:      notifier,
	}
}

// ScheduleInput содержит данные новой записи.
type ScheduleInput struct {
	ProfessionalID  uuid.UUID
	ClientID        uuid.UUID
	ServiceID       *uuid.UUID
	Date            time.Time
	StartTime       string
	DurationMinutes int
	Notes           *string
}

// Schedule создаёт запись, предварительно проверив, что слот свободен.
// Отменённые записи расписание не занимают.
func (s *AppointmentService) Schedule(ctx context.Context, input ScheduleInput) (*models.Appointment, error) {
	if err := validation.ValidateTimeOfDay(input.StartTime); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if input.DurationMinutes <= 0 || input.DurationMinutes > validation.MaxDurationMinutes {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная длительность записи")
	}
	if input.ProfessionalID == input.ClientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя записаться к самому себе")
	}

	start := normalizeTimeOfDay(input.StartTime)
	end := calculateEndTime(start, input.DurationMinutes)
	date := formatDate(input.Date)

	occupied, err := s.occupiedSlots(ctx, input.ProfessionalID, input.Date, input.Date)
	if err != nil {
		return nil, err
	}
	if isSlotOccupied(occupied, date, start, end) {
		return nil, apperror.ErrSlotOccupied
	}

	var conversationID *uuid.UUID
	if s.conversations != nil {
		conversation, err := s.conversations.GetOrCreate(ctx, input.ClientID, input.ProfessionalID, input.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("get or create conversation: %w", err)
		}
		conversationID = &conversation.ID
	}

	appointment := &models.Appointment{
		ProfessionalID:  input.ProfessionalID,
		ClientID:        input.ClientID,
		ServiceID:       input.ServiceID,
		ConversationID:  conversationID,
		ScheduledDate:   input.Date,
		ScheduledTime:   start,
		DurationMinutes: input.DurationMinutes,
		Status:          models.AppointmentStatusConfirmed,
		Notes:           input.Notes,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.postSystemMessage(ctx, appointment,
		fmt.Sprintf("Запись создана на %s в %s", date, trimTime(start)))
	s.notifyUser(appointment.ProfessionalID, "appointment.created", appointment)

	return appointment, nil
}

// Get возвращает запись, доступную только её участникам.
func (s *AppointmentService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return nil, apperror.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment.ClientID != userID && appointment.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}
	return appointment, nil
}

// ListForUser возвращает записи пользователя.
func (s *AppointmentService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Appointment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Availability возвращает занятые интервалы специалиста в диапазоне дат.
// Эндпоинт публичный: отдаются только интервалы, без данных клиентов.
func (s *AppointmentService) Availability(ctx context.Context, professionalID uuid.UUID, startDate, endDate time.Time) ([]models.OccupiedSlot, error) {
	if endDate.Before(startDate) {
		return nil, apperror.New(apperror.ErrCodeValidation, "конец диапазона раньше начала")
	}
	return s.occupiedSlots(ctx, professionalID, startDate, endDate)
}

// OccupiedSlotsForDate возвращает занятые интервалы на конкретную дату.
func (s *AppointmentService) OccupiedSlotsForDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]models.OccupiedSlot, error) {
	occupied, err := s.occupiedSlots(ctx, professionalID, date, date)
	if err != nil {
		return nil, err
	}
	return occupiedSlotsForDate(occupied, formatDate(date)), nil
}

// IsSlotFree проверяет, свободен ли интервал у специалиста.
func (s *AppointmentService) IsSlotFree(ctx context.Context, professionalID uuid.UUID, date time.Time, startTime string, durationMinutes int) (bool, error) {
	if err := validation.ValidateTimeOfDay(startTime); err != nil {
		return false, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if durationMinutes <= 0 || durationMinutes > validation.MaxDurationMinutes {
		return false, apperror.New(apperror.ErrCodeValidation, "некорректная длительность записи")
	}

	start := normalizeTimeOfDay(startTime)
	end := calculateEndTime(start, durationMinutes)

	occupied, err := s.occupiedSlots(ctx, professionalID, date, date)
	if err != nil {
		return false, err
	}
	return !isSlotOccupied(occupied, formatDate(date), start, end), nil
}

// Cancel отменяет запись. Отменённая запись перестаёт занимать слот.
func (s *AppointmentService) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return nil, apperror.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment.ClientID != userID && appointment.ProfessionalID != userID {
		return nil, apperror.ErrForbidden
	}

	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "запись уже отменена")
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.postSystemMessage(ctx, cancelled,
		fmt.Sprintf("Запись на %s в %s отменена", formatDate(cancelled.ScheduledDate), trimTime(cancelled.ScheduledTime)))

	other := cancelled.ProfessionalID
	if userID == cancelled.ProfessionalID {
		other = cancelled.ClientID
	}
	s.notifyUser(other, "appointment.cancelled", cancelled)

	return cancelled, nil
}

// SendDueReminders рассылает напоминания о встречах: за сутки и за час.
// Флаг взводится до отправки, поэтому каждое напоминание уходит не более
// одного раза даже при параллельных проходах.
func (s *AppointmentService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	sent := 0

	passes := []struct {
		window time.Duration
		flag   string
		text   string
	}{
		{24 * time.Hour, reminderFlag24h, "Напоминание: завтра в %s у вас встреча"},
		{time.Hour, reminderFlagSoon, "Напоминание: через час, в %s, у вас встреча"},
	}

	for _, pass := range passes {
		due, err := s.repo.ListDueReminders(ctx, now, pass.window, pass.flag)
		if err != nil {
			return sent, fmt.Errorf("list due reminders: %w", err)
		}

		for i := range due {
			appointment := &due[i]

			marked, err := s.repo.MarkReminderSent(ctx, appointment.ID, pass.flag)
			if err != nil {
				logger.Log.WithError(err).WithField("appointment_id", appointment.ID).Warn("Не удалось взвести флаг напоминания")
				continue
			}
			if !marked {
				continue
			}

			s.postSystemMessage(ctx, appointment, fmt.Sprintf(pass.text, trimTime(appointment.ScheduledTime)))
			s.notifyUser(appointment.ClientID, "appointment.reminder", appointment)
			sent++
		}
	}

	return sent, nil
}

// occupiedSlots собирает занятые интервалы из активных записей диапазона.
func (s *AppointmentService) occupiedSlots(ctx context.Context, professionalID uuid.UUID, startDate, endDate time.Time) ([]models.OccupiedSlot, error) {
	appointments, err := s.repo.ListActiveInRange(ctx, professionalID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	slots := make([]models.OccupiedSlot, 0, len(appointments))
	for _, appointment := range appointments {
		slots = append(slots, models.OccupiedSlot{
			Date:  appointment.ScheduledDate,
			Start: normalizeTimeOfDay(appointment.ScheduledTime),
			End:   calculateEndTime(appointment.ScheduledTime, appointment.DurationMinutes),
		})
	}
	return slots, nil
}

func (s *AppointmentService) postSystemMessage(ctx context.Context, appointment *models.Appointment, content string) {
	if appointment.ConversationID == nil || s.conversations == nil {
		return
	}
	if _, err := s.conversations.CreateSystemMessage(ctx, *appointment.ConversationID, content); err != nil {
		logger.Log.WithError(err).WithField("appointment_id", appointment.ID).Warn("Не удалось создать системное сообщение")
	}
}

func (s *AppointmentService) notifyUser(userID uuid.UUID, event string, appointment *models.Appointment) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, appointment); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}
