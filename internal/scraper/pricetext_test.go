package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceAdjacentSymbol(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		amount   float64
		currency string
	}{
		{"comma thousands dot decimal", "4,900.50₽", 4900.50, "₽"},
		{"comma decimal", "1234,56₽", 1234.56, "₽"},
		{"plain integer", "4900₽", 4900, "₽"},
		{"space thousands", "4 900 ₽", 4900, "₽"},
		{"nbsp thousands", "4 900 ₽", 4900, "₽"},
		{"dollar", "129.99$", 129.99, "$"},
		{"euro", "75€", 75, "€"},
		{"dotted thousands", "1.234.567₽", 1234567, "₽"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, currency := ParsePrice(tt.text)
			assert.Equal(t, tt.amount, amount)
			assert.Equal(t, tt.currency, currency)
		})
	}
}

func TestParsePriceDigitRunFallback(t *testing.T) {
	// Currency separated from the digits, so tier 1 cannot fire.
	amount, currency := ParsePrice("цена 4 900 руб ₽/сутки")
	assert.Equal(t, float64(4900), amount)
	assert.Equal(t, "₽", currency)

	// Digits but no currency symbol at all.
	amount, currency = ParsePrice("4 900 per night")
	assert.Equal(t, float64(4900), amount)
	assert.Equal(t, "", currency)
}

func TestParsePriceNoDigits(t *testing.T) {
	amount, currency := ParsePrice("call for price")
	assert.Equal(t, float64(0), amount)
	assert.Equal(t, "", currency)

	amount, currency = ParsePrice("")
	assert.Equal(t, float64(0), amount)
	assert.Equal(t, "", currency)
}

func TestHasCurrency(t *testing.T) {
	assert.True(t, HasCurrency("4900 ₽"))
	assert.True(t, HasCurrency("$10"))
	assert.False(t, HasCurrency("4900 rub"))
}
