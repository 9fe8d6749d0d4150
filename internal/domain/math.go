package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// SafeFloat returns the pointed-to value, or zero for nil, NaN and
// infinities. Used wherever a missing or broken cell must degrade to 0
// instead of failing the valuation pass.
func SafeFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// SafeDecimal converts a float to a decimal, returning zero for NaN and
// infinities (which decimal.NewFromFloat rejects).
func SafeDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// ParseNumber parses free-form numeric text tolerantly: every character
// except digits, sign and separators is stripped, then Turkish/European
// formats ("7.609,50") are normalized. Returns false for text with no
// usable number in it.
func ParseNumber(raw string) (float64, bool) {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(raw) {
		if ch >= '0' && ch <= '9' || ch == '.' || ch == ',' || ch == '-' {
			b.WriteRune(ch)
		}
	}
	s := b.String()
	switch s {
	case "", ".", ",", "-", "-.", "-,":
		return 0, false
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	if hasComma && hasDot {
		// Dot is the thousands separator, comma the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if hasComma {
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
