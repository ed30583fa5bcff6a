package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "09:30:00", "23:59:59"}
	for _, v := range valid {
		assert.NoError(t, ValidateTimeOfDay(v), v)
	}

	invalid := []string{"", "24:00", "9:30", "09:60", "09:30:60", "сейчас", "09-30"}
	for _, v := range invalid {
		assert.Error(t, ValidateTimeOfDay(v), v)
	}
}

func TestValidateTaxID(t *testing.T) {
	// CPF — 11 цифр, CNPJ — 14, пунктуация допускается.
	assert.NoError(t, ValidateTaxID("12345678901"))
	assert.NoError(t, ValidateTaxID("123.456.789-01"))
	assert.NoError(t, ValidateTaxID("12.345.678/0001-95"))

	assert.Error(t, ValidateTaxID(""))
	assert.Error(t, ValidateTaxID("123456"))
	assert.Error(t, ValidateTaxID("123456789012"))
}

func TestValidateQuoteTitle(t *testing.T) {
	assert.NoError(t, ValidateQuoteTitle("Ремонт ванной"))
	assert.Error(t, ValidateQuoteTitle("ок"))
	assert.Error(t, ValidateQuoteTitle("  а  "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.com"))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("user@localhost"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Password1"))

	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("ALLUPPERCASE1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}
