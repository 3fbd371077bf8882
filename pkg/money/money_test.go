package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAcceptsComma(t *testing.T) {
	t.Parallel()

	got, err := Parse("10,50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("10.50")) {
		t.Fatalf("unexpected amount: %s", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "abc", "1.2.3"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLineSubtotalRounds(t *testing.T) {
	t.Parallel()

	// 0.335 kg at 9.99/kg = 3.34665, rounds to 3.35.
	price := decimal.RequireFromString("9.99")
	qty := decimal.RequireFromString("0.335")
	got := LineSubtotal(price, qty)
	if Format(got) != "3.35" {
		t.Fatalf("unexpected subtotal: %s", got)
	}
}

func TestFormatAlwaysTwoPlaces(t *testing.T) {
	t.Parallel()

	if got := Format(decimal.NewFromInt(7)); got != "7.00" {
		t.Fatalf("unexpected format: %s", got)
	}
}
