package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pushpulse/pkg/contracts/domain"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{name: "small", input: 5, want: "$5.00"},
		{name: "thousands", input: 1234.56, want: "$1,234.56"},
		{name: "millions", input: 1234567.89, want: "$1,234,567.89"},
		{name: "zero", input: 0, want: "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.input))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{name: "small", input: 42, want: "42"},
		{name: "exactly one group", input: 1000, want: "1,000"},
		{name: "large", input: 12500000, want: "12,500,000"},
		{name: "rounds to integer", input: 99.7, want: "100"},
		{name: "negative", input: -12345, want: "-12,345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.input))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "97.25%", FormatPercent(97.25))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestTrendArrow(t *testing.T) {
	assert.Equal(t, "▲", TrendArrow(domain.TrendUp))
	assert.Equal(t, "▼", TrendArrow(domain.TrendDown))
	assert.Equal(t, "→", TrendArrow(domain.TrendNeutral))
	assert.Equal(t, "→", TrendArrow(domain.TrendDirection("unknown")))
}
