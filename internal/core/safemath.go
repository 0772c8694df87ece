package core

import (
	"fmt"
	"math"
)

// Defensive-numeric thresholds. Percentage math on near-zero financial
// denominators produces absurd deltas (a R$0.07 month after a R$3180
// month is not a "-99.998% crash" worth ranking); these functions
// prefer "unknown" over "wrong".
const (
	MinDenominator   = 0.01
	SmallBase        = 10.0
	PercentChangeMin = -100.0
	PercentChangeMax = 1000.0
)

// SafeDivide returns numerator/denominator, or def when the denominator
// is below minThreshold in magnitude or the quotient is non-finite.
func SafeDivide(numerator, denominator, def, minThreshold float64) float64 {
	if math.Abs(denominator) < minThreshold {
		return def
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return def
	}
	return q
}

// SafePercentage computes part/total*100, falling back to 0 on an
// unreliable total.
func SafePercentage(part, total float64) float64 {
	return SafeDivide(part, total, 0.0, MinDenominator) * 100
}

// SafePercentageChange computes the percentage change from previous to
// current, returning nil whenever the result would be unreliable:
//
//   - previous is a near-zero base (meaningless denominator)
//   - a near-total collapse from an already-small base
//   - an extreme swing (|pct| > 99.9) from a base below SmallBase
//
// Reliable results are clamped to [PercentChangeMin, PercentChangeMax].
// Both values near zero means "no change" (0), not nil.
func SafePercentageChange(current, previous float64) *float64 {
	if math.Abs(current) < MinDenominator && math.Abs(previous) < MinDenominator {
		zero := 0.0
		return &zero
	}
	if math.Abs(previous) < MinDenominator {
		return nil
	}
	if math.Abs(current) < MinDenominator && math.Abs(previous) < SmallBase {
		return nil
	}
	pct := (current - previous) / math.Abs(previous) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return nil
	}
	if math.Abs(pct) > 99.9 && math.Abs(previous) < SmallBase {
		return nil
	}
	pct = math.Max(PercentChangeMin, math.Min(PercentChangeMax, pct))
	return &pct
}

// MarginSafely computes ((revenue-expenses)/|revenue|)*100, or nil when
// revenue is too small to yield a meaningful margin.
func MarginSafely(revenue, expenses float64) *float64 {
	if math.Abs(revenue) < MinDenominator {
		return nil
	}
	m := (revenue - expenses) / math.Abs(revenue) * 100
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return nil
	}
	return &m
}

// IsReliableTrend reports whether a series has enough significant
// values (|v| >= minValueThreshold) to support trend math.
func IsReliableTrend(values []float64, minValues int, minValueThreshold float64) bool {
	if len(values) < minValues {
		return false
	}
	n := 0
	for _, v := range values {
		if math.Abs(v) >= minValueThreshold {
			n++
		}
	}
	return n >= minValues
}

// FormatPercentageChange renders a nullable percentage for display:
// "N/A" for nil, otherwise a signed fixed-point string like "+15.5%".
func FormatPercentageChange(value *float64, decimals int, showPlus bool) string {
	if value == nil {
		return "N/A"
	}
	sign := ""
	if *value >= 0 && showPlus {
		sign = "+"
	}
	return fmt.Sprintf("%s%.*f%%", sign, decimals, *value)
}
