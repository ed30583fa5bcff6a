package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength минимальная длина пароля в символах.
const MinPasswordLength = 8

// ValidatePassword проверяет стойкость пароля: длина не меньше
// MinPasswordLength, хотя бы одна заглавная и строчная буква и цифра.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return fmt.Errorf("пароль должен содержать хотя бы одну строчную букву")
	}
	if !strings.ContainsFunc(password, unicode.IsNumber) {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	return nil
}
