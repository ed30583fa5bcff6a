package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) ListActiveInRange(ctx context.Context, professionalID uuid.UUID, startDate, endDate time.Time) ([]models.Appointment, error) {
	args := m.Called(ctx, professionalID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Appointment, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) Cancel(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) ListDueReminders(ctx context.Context, now time.Time, window time.Duration, flagColumn string) ([]models.Appointment, error) {
	args := m.Called(ctx, now, window, flagColumn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, flagColumn string) (bool, error) {
	args := m.Called(ctx, id, flagColumn)
	return args.Bool(0), args.Error(1)
}

func TestAppointmentService_Schedule(t *testing.T) {
	repo := new(mockAppointmentRepo)
	conversations := new(mockConversationStore)
	svc := NewAppointmentService(repo, conversations, nil)
	ctx := context.Background()

	professionalID := uuid.New()
	clientID := uuid.New()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	conversation := &models.Conversation{ID: uuid.New()}

	repo.On("ListActiveInRange", ctx, professionalID, date, date).Return([]models.Appointment{}, nil)
	conversations.On("GetOrCreate", ctx, clientID, professionalID, (*uuid.UUID)(nil)).Return(conversation, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	conversations.On("CreateSystemMessage", ctx, conversation.ID, mock.AnythingOfType("string")).Return(&models.Message{}, nil)

	appointment, err := svc.Schedule(ctx, ScheduleInput{
		ProfessionalID:  professionalID,
		ClientID:        clientID,
		Date:            date,
		StartTime:       "09:00",
		DurationMinutes: 60,
	})

	assert.NoError(t, err)
	assert.Equal(t, "09:00:00", appointment.ScheduledTime)
	assert.Equal(t, models.AppointmentStatusConfirmed, appointment.Status)
	repo.AssertExpectations(t)
}

func TestAppointmentService_Schedule_SlotOccupied(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := NewAppointmentService(repo, nil, nil)
	ctx := context.Background()

	professionalID := uuid.New()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo.On("ListActiveInRange", ctx, professionalID, date, date).Return([]models.Appointment{
		{ScheduledDate: date, ScheduledTime: "09:00:00", DurationMinutes: 60, Status: models.AppointmentStatusConfirmed},
	}, nil)

	_, err := svc.Schedule(ctx, ScheduleInput{
		ProfessionalID:  professionalID,
		ClientID:        uuid.New(),
		Date:            date,
		StartTime:       "09:30",
		DurationMinutes: 60,
	})

	assert.Equal(t, apperror.ErrSlotOccupied, err)
}

func TestAppointmentService_Schedule_AdjacentSlotAllowed(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := NewAppointmentService(repo, nil, nil)
	ctx := context.Background()

	professionalID := uuid.New()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo.On("ListActiveInRange", ctx, professionalID, date, date).Return([]models.Appointment{
		{ScheduledDate: date, ScheduledTime: "09:00:00", DurationMinutes: 60, Status: models.AppointmentStatusConfirmed},
	}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)

	// Запись впритык к концу занятого интервала разрешена.
	appointment, err := svc.Schedule(ctx, ScheduleInput{
		ProfessionalID:  professionalID,
		ClientID:        uuid.New(),
		Date:            date,
		StartTime:       "10:00",
		DurationMinutes: 60,
	})

	assert.NoError(t, err)
	assert.Equal(t, "10:00:00", appointment.ScheduledTime)
}

func TestAppointmentService_Schedule_RejectsInvalidInput(t *testing.T) {
	svc := NewAppointmentService(new(mockAppointmentRepo), nil, nil)
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	sameID := uuid.New()

	cases := []struct {
		name  string
		input ScheduleInput
	}{
		{"некорректное время", ScheduleInput{ProfessionalID: uuid.New(), ClientID: uuid.New(), Date: date, StartTime: "25:00", DurationMinutes: 60}},
		{"нулевая длительность", ScheduleInput{ProfessionalID: uuid.New(), ClientID: uuid.New(), Date: date, StartTime: "09:00", DurationMinutes: 0}},
		{"запись к самому себе", ScheduleInput{ProfessionalID: sameID, ClientID: sameID, Date: date, StartTime: "09:00", DurationMinutes: 60}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Schedule(ctx, tc.input)
			assert.Error(t, err)
		})
	}
}

func TestAppointmentService_Cancel_AlreadyCancelled(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := NewAppointmentService(repo, nil, nil)
	ctx := context.Background()

	appointmentID := uuid.New()
	clientID := uuid.New()
	appointment := &models.Appointment{ID: appointmentID, ClientID: clientID, ProfessionalID: uuid.New(), Status: models.AppointmentStatusCancelled}

	repo.On("GetByID", ctx, appointmentID).Return(appointment, nil)
	repo.On("Cancel", ctx, appointmentID).Return(nil, repository.ErrAppointmentNotFound)

	_, err := svc.Cancel(ctx, appointmentID, clientID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestAppointmentService_Cancel_Forbidden(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := NewAppointmentService(repo, nil, nil)
	ctx := context.Background()

	appointmentID := uuid.New()
	appointment := &models.Appointment{ID: appointmentID, ClientID: uuid.New(), ProfessionalID: uuid.New()}

	repo.On("GetByID", ctx, appointmentID).Return(appointment, nil)

	_, err := svc.Cancel(ctx, appointmentID, uuid.New())
	assert.Equal(t, apperror.ErrForbidden, err)
}

func TestAppointmentService_IsSlotFree(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := NewAppointmentService(repo, nil, nil)
	ctx := context.Background()

	professionalID := uuid.New()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo.On("ListActiveInRange", ctx, professionalID, date, date).Return([]models.Appointment{
		{ScheduledDate: date, ScheduledTime: "09:00:00", DurationMinutes: 60, Status: models.AppointmentStatusConfirmed},
	}, nil)

	free, err := svc.IsSlotFree(ctx, professionalID, date, "09:30", 30)
	assert.NoError(t, err)
	assert.False(t, free)

	free, err = svc.IsSlotFree(ctx, professionalID, date, "10:00", 30)
	assert.NoError(t, err)
	assert.True(t, free)
}

func TestAppointmentService_Availability_InvalidRange(t *testing.T) {
	svc := NewAppointmentService(new(mockAppointmentRepo), nil, nil)
	ctx := context.Background()

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Availability(ctx, uuid.New(), start, end)
	assert.Error(t, err)
}

func TestAppointmentService_SendDueReminders(t *testing.T) {
	repo := new(mockAppointmentRepo)
	notifier := new(mockNotifier)
	svc := NewAppointmentService(repo, nil, notifier)
	ctx := context.Background()
	now := time.Now().UTC()

	due24h := models.Appointment{ID: uuid.New(), ClientID: uuid.New(), ScheduledTime: "09:00:00"}
	dueSoon := models.Appointment{ID: uuid.New(), ClientID: uuid.New(), ScheduledTime: "15:30:00"}

	repo.On("ListDueReminders", ctx, now, 24*time.Hour, "reminder_24h_sent").Return([]models.Appointment{due24h}, nil)
	repo.On("ListDueReminders", ctx, now, time.Hour, "reminder_sent").Return([]models.Appointment{dueSoon}, nil)
	repo.On("MarkReminderSent", ctx, due24h.ID, "reminder_24h_sent").Return(true, nil)
	repo.On("MarkReminderSent", ctx, dueSoon.ID, "reminder_sent").Return(true, nil)
	notifier.On("BroadcastToUser", due24h.ClientID, "appointment.reminder", mock.Anything).Return(nil)
	notifier.On("BroadcastToUser", dueSoon.ClientID, "appointment.reminder", mock.Anything).Return(nil)

	sent, err := svc.SendDueReminders(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestAppointmentService_SendDueReminders_SkipsAlreadyMarked(t *testing.T) {
	repo := new(mockAppointmentRepo)
	notifier := new(mockNotifier)
	svc := NewAppointmentService(repo, nil, notifier)
	ctx := context.Background()
	now := time.Now().UTC()

	due := models.Appointment{ID: uuid.New(), ClientID: uuid.New(), ScheduledTime: "09:00:00"}

	repo.On("ListDueReminders", ctx, now, 24*time.Hour, "reminder_24h_sent").Return([]models.Appointment{due}, nil)
	repo.On("ListDueReminders", ctx, now, time.Hour, "reminder_sent").Return([]models.Appointment{}, nil)
	// Параллельный проход уже взвёл флаг — напоминание не дублируется.
	repo.On("MarkReminderSent", ctx, due.ID, "reminder_24h_sent").Return(false, nil)

	sent, err := svc.SendDueReminders(ctx, now)
	assert.NoError(t, err)
	assert.Zero(t, sent)
	notifier.AssertNotCalled(t, "BroadcastToUser", mock.Anything, mock.Anything, mock.Anything)
}
