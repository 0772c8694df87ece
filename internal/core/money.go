// Package core holds the band's financial domain: money parsing, safe
// arithmetic, record validation and the KPI and allocation engines.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseBRL converts a locale-formatted monetary string to a float64.
//
// It accepts both Brazilian ("1.234,56") and plain ("1234.56")
// conventions: when a comma is present, periods are treated as thousands
// separators and removed. Any character outside digits, comma, period
// and minus is stripped first (currency symbols, NBSPs). The function
// never fails: malformed or empty input yields 0.0, so a single bad
// cell cannot abort a report render. It never rescales the value.
//
// Examples:
//
//	ParseBRL("R$ 1.234,56") -> 1234.56
//	ParseBRL("1234.56")     -> 1234.56
//	ParseBRL("")            -> 0.0
func ParseBRL(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0.0
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if strings.Contains(s, ",") {
		// Comma decimal convention: periods are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

// FormatBRL renders a value as "R$ 1.234,56": two decimals, comma as
// decimal separator, period as thousands separator.
func FormatBRL(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("R$ %v", v)
	}
	neg := v < 0 || (v == 0 && math.Signbit(v))
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	sign := ""
	if neg && cents != 0 {
		sign = "-"
	}
	return fmt.Sprintf("R$ %s%s,%02d", sign, b.String(), frac)
}
