package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "Apple", "Apple"},
		{"Padded", "  X ", "X"},
		{"Non-breaking space inside", "6.1\u00a0\"", "6.1 \""},
		{"Non-breaking space around", "\u00a0128 ГБ\u00a0", "128 ГБ"},
		{"Newlines", "\n Чорний \n", "Чорний"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Plain integer", "34999", 34999},
		{"Hryvnia with spaces", "34 999 ₴", 34999},
		{"Comma decimal with NBSP", "12 999,00\u00a0₴", 12999.00},
		{"Newlines inside wrapper", "\n 34 999\n₴\n", 34999},
		{"Dot decimal", "12999.50", 12999.50},
		{"Comma thousands dot decimal", "1,234.56", 1234.56},
		{"Dot thousands comma decimal", "1.234,56", 1234.56},
		{"Repeated dots are thousands", "12.999.000", 12999000},
		{"Repeated commas are thousands", "12,999,000", 12999000},
		{"Lone comma before three digits", "1,299", 1299},
		{"Lone dot before three digits", "12.999", 12999},
		{"Lone comma before two digits", "1,29", 1.29},
		{"Currency prefix", "₴ 9 499", 9499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParsePriceRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "₴", "Немає в наявності", ".", ",", "..."} {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePrice(input)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}
