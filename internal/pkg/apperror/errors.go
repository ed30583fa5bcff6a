package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeMissingPrecondition ErrorCode = "MISSING_PRECONDITION"
	ErrCodeUpstreamFailure     ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeNotYetSettled       ErrorCode = "NOT_YET_SETTLED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeMissingPrecondition:
		return http.StatusUnprocessableEntity
	case ErrCodeUpstreamFailure:
		return http.StatusBadGateway
	case ErrCodeNotYetSettled:
		// Оплата ещё не прошла — клиент может повторить запрос позже.
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsInvalidState(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidState
}

func IsMissingPrecondition(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeMissingPrecondition
}

func IsNotYetSettled(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotYetSettled
}

var (
	ErrQuoteNotFound       = New(ErrCodeNotFound, "смета не найдена")
	ErrAppointmentNotFound = New(ErrCodeNotFound, "встреча не найдена")
	ErrBillingNotFound     = New(ErrCodeNotFound, "счёт на оплату не найден")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrMissingTaxID        = New(ErrCodeMissingPrecondition, "в профиле не указан CPF/CNPJ")
	ErrNotYetSettled       = New(ErrCodeNotYetSettled, "оплата ещё не подтверждена провайдером")
	ErrSlotOccupied        = New(ErrCodeConflict, "выбранное время уже занято")
)
