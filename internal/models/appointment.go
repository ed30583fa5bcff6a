package models

import (
	"time"

	"github.com/google/uuid"
)

// Appointment описывает запись клиента к специалисту.
// ScheduledTime и производное EndTime хранятся строками формата HH:MM:SS,
// что позволяет сравнивать их лексикографически.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ProfessionalID  uuid.UUID  `db:"professional_id" json:"professional_id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	ServiceID       *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	ConversationID  *uuid.UUID `db:"conversation_id" json:"conversation_id,omitempty"`
	ScheduledDate   time.Time  `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime   string     `db:"scheduled_time" json:"scheduled_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Status          string     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	// Флаги напоминаний взводятся фоновой проверкой ровно один раз
	// и никогда не сбрасываются.
	Reminder24hSent bool      `db:"reminder_24h_sent" json:"reminder_24h_sent"`
	ReminderSent    bool      `db:"reminder_sent" json:"reminder_sent"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OccupiedSlot описывает занятый интервал [Start, End) в расписании специалиста.
type OccupiedSlot struct {
	Date  time.Time `json:"date"`
	Start string    `json:"start"`
	End   string    `json:"end"`
}
