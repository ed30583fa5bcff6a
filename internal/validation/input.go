package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength         = 3
	MaxUsernameLength         = 30
	MinDisplayNameLength      = 2
	MaxDisplayNameLength      = 100
	MinQuoteTitleLength       = 3
	MaxQuoteTitleLength       = 200
	MaxQuoteDescriptionLength = 5000
	MinMessageLength          = 1
	MaxMessageLength          = 5000
	MaxPrice                  = 100000000.0 // 100 миллионов
	MaxValidityDays           = 365
	MaxDurationMinutes        = 24 * 60
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}
	return ValidateLength("отображаемое имя", strings.TrimSpace(displayName), MinDisplayNameLength, MaxDisplayNameLength)
}

// ValidateQuoteTitle проверяет заголовок сметы.
func ValidateQuoteTitle(title string) error {
	return ValidateLength("заголовок сметы", strings.TrimSpace(title), MinQuoteTitleLength, MaxQuoteTitleLength)
}

// ValidateQuoteDescription проверяет описание сметы.
func ValidateQuoteDescription(description *string) error {
	if description == nil {
		return nil
	}
	return ValidateLength("описание сметы", *description, 0, MaxQuoteDescriptionLength)
}

// ValidateMessageContent проверяет текст сообщения.
func ValidateMessageContent(content string) error {
	return ValidateLength("сообщение", strings.TrimSpace(content), MinMessageLength, MaxMessageLength)
}

// ValidateTaxID проверяет бразильский налоговый идентификатор:
// CPF (11 цифр) или CNPJ (14 цифр), пунктуация допускается.
func ValidateTaxID(taxID string) error {
	digits := regexp.MustCompile(`\D`).ReplaceAllString(taxID, "")
	if len(digits) != 11 && len(digits) != 14 {
		return fmt.Errorf("CPF/CNPJ должен содержать 11 или 14 цифр")
	}
	return nil
}

// timeRegex формат HH:MM или HH:MM:SS.
var timeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// ValidateTimeOfDay проверяет время в формате HH:MM или HH:MM:SS.
func ValidateTimeOfDay(value string) error {
	if !timeRegex.MatchString(value) {
		return fmt.Errorf("время должно быть в формате HH:MM или HH:MM:SS")
	}
	return nil
}
