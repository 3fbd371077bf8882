package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are rounded to 2 decimal places at every subtotal and at the
// final total so drift never accumulates across lines.
const Places = 2

var Zero = decimal.Zero

// Parse converts operator input into a currency amount. Comma is accepted
// as a decimal separator since cashiers type both.
func Parse(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

// Round2 rounds half-up to currency precision.
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(Places)
}

// LineSubtotal computes unit price × quantity rounded to currency precision.
func LineSubtotal(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return Round2(unitPrice.Mul(quantity))
}

// Format renders an amount with exactly two decimal places.
func Format(value decimal.Decimal) string {
	return value.StringFixed(Places)
}
