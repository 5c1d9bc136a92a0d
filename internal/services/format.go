package services

import (
	"fmt"
	"strings"

	"pushpulse/pkg/contracts/domain"
)

// FormatCurrency renders a revenue figure for metric cards, e.g. "$1,234.56".
func FormatCurrency(v float64) string {
	return "$" + groupThousands(fmt.Sprintf("%.2f", v))
}

// FormatNumber renders a count with thousands separators, e.g. "12,500".
func FormatNumber(v float64) string {
	return groupThousands(fmt.Sprintf("%.0f", v))
}

// FormatPercent renders a rate metric, e.g. "97.25%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// TrendArrow maps a trend direction to the glyph shown on metric cards.
func TrendArrow(d domain.TrendDirection) string {
	switch d {
	case domain.TrendUp:
		return "▲"
	case domain.TrendDown:
		return "▼"
	default:
		return "→"
	}
}

// groupThousands inserts commas into the integer part of a formatted
// number. The input must already be a plain decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.Index(s, "."); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
