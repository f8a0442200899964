package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatRate formats an annual growth rate without a sign, e.g. "6.33%".
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

// FormatCompact formats an amount in short-scale notation.
// e.g., 1500 → "1.5K", 2500000 → "2.5M", 1e9 → "1B"
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}

	switch {
	case amount >= 1e12:
		return sign + formatWithDecimals(amount/1e12) + "T"
	case amount >= 1e9:
		return sign + formatWithDecimals(amount/1e9) + "B"
	case amount >= 1e6:
		return sign + formatWithDecimals(amount/1e6) + "M"
	case amount >= 1e3:
		return sign + formatWithDecimals(amount/1e3) + "K"
	default:
		return fmt.Sprintf("%s%.2f", sign, amount)
	}
}

// FormatGrouped formats an amount with comma thousands separators and two
// decimals, e.g. 1234567.891 → "1,234,567.89".
func FormatGrouped(amount float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(amount))
	intPart, decPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount < 0 && s != "0.00" {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(decPart)
	return b.String()
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
