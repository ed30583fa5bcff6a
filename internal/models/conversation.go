package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Conversation описывает чат между клиентом и специалистом.
type Conversation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ClientID       uuid.UUID  `db:"client_id" json:"client_id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	ServiceID      *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Message описывает сообщение в чате. Системные сообщения (author_type =
// "system") создаются платформой: события смет, подтверждения оплат,
// напоминания о встречах.
type Message struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConversationID uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	AuthorType     string     `db:"author_type" json:"author_type"`
	AuthorID       *uuid.UUID `db:"author_id" json:"author_id,omitempty"`
	Content        string     `db:"content" json:"content"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
