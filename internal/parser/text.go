package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPrice = errors.New("invalid price")

// CleanText replaces non-breaking spaces and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

// ParsePrice turns a displayed price such as "12 999,00 ₴" into 12999.
// Everything except digits and separators is dropped. When both '.' and ','
// appear the last one is the decimal separator; a separator that repeats, or
// a lone one followed by exactly three digits, is a thousands separator.
func ParsePrice(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrInvalidPrice, text)
	}

	cleaned = normalizeSeparators(cleaned)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, text, err)
	}
	return value, nil
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimal, thousands := ".", ","
		if lastComma > lastDot {
			decimal, thousands = ",", "."
		}
		s = strings.ReplaceAll(s, thousands, "")
		return keepLastAsDot(s, decimal)
	case lastComma >= 0:
		if isThousands(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if isThousands(s, ".") {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	default:
		return s
	}
}

func isThousands(s, sep string) bool {
	if strings.Count(s, sep) > 1 {
		return true
	}
	i := strings.Index(s, sep)
	return i > 0 && len(s)-i-len(sep) == 3
}

func keepLastAsDot(s, sep string) string {
	i := strings.LastIndex(s, sep)
	head := strings.ReplaceAll(s[:i], sep, "")
	return head + "." + s[i+len(sep):]
}
