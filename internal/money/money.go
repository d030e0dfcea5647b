// Package money compares rupee amounts and percentages with fixed tolerances.
// Amounts are rounded to paise before comparison so the outcome does not
// depend on how the float operands were accumulated.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const paise = 2

// FromFloat converts a float to a decimal rounded to paise.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(paise)
}

// Diff returns |a-b| after rounding both sides to paise.
func Diff(a, b float64) float64 {
	d, _ := FromFloat(a).Sub(FromFloat(b)).Abs().Float64()
	return d
}

// Within reports whether |a-b| <= tolerance.
func Within(a, b, tolerance float64) bool {
	return FromFloat(a).Sub(FromFloat(b)).Abs().LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// RateWithin compares percentages at four decimal places.
func RateWithin(a, b, tolerance float64) bool {
	da := decimal.NewFromFloat(a).Round(4)
	db := decimal.NewFromFloat(b).Round(4)
	return da.Sub(db).Abs().LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// Sum adds amounts in decimal and returns the paise-rounded float.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(paise).Float64()
	return f
}

// Percent returns base * rate / 100 rounded to paise.
func Percent(base, rate float64) float64 {
	f, _ := decimal.NewFromFloat(base).
		Mul(decimal.NewFromFloat(rate)).
		Div(decimal.NewFromInt(100)).
		Round(paise).
		Float64()
	return f
}

// Mul returns a*b rounded to paise.
func Mul(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(paise).Float64()
	return f
}

// Format renders an amount as ₹1234.50.
func Format(v float64) string {
	return "₹" + FromFloat(v).StringFixed(paise)
}

// FormatGrouped renders an amount with thousands separators, e.g. ₹1,000,000.
func FormatGrouped(v float64) string {
	s := FromFloat(v).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-₹" + b.String()
	}
	return "₹" + b.String()
}

// FormatRate renders a percentage, e.g. 2% or 0.75%.
func FormatRate(v float64) string {
	return fmt.Sprintf("%s%%", decimal.NewFromFloat(v).Round(4).String())
}
