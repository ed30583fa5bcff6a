package models

// Роли пользователей
const (
	RoleClient       = "client"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// QuoteStatus константы статусов смет.
// rejected, expired и cancelled — терминальные, обратных переходов нет.
const (
	QuoteStatusPending   = "pending"
	QuoteStatusAccepted  = "accepted"
	QuoteStatusRejected  = "rejected"
	QuoteStatusExpired   = "expired"
	QuoteStatusCancelled = "cancelled"
	QuoteStatusCompleted = "completed"
)

// AppointmentStatus константы статусов встреч
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

// Типы транзакций кошелька
const (
	WalletTransactionTypeCredit = "credit"
	WalletTransactionTypeDebit  = "debit"
)

// Статусы транзакций кошелька
const (
	WalletTransactionStatusCompleted = "completed"
	WalletTransactionStatusPending   = "pending"
)

// Типы авторов сообщений в чате
const (
	MessageAuthorUser   = "user"
	MessageAuthorSystem = "system"
)

// ValidQuoteStatuses список валидных статусов смет
var ValidQuoteStatuses = map[string]struct{}{
	QuoteStatusPending:   {},
	QuoteStatusAccepted:  {},
	QuoteStatusRejected:  {},
	QuoteStatusExpired:   {},
	QuoteStatusCancelled: {},
	QuoteStatusCompleted: {},
}
