package quantity

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

func product(weighted bool, price string) backend.Product {
	return backend.Product{
		ID:         1,
		Name:       "produto",
		Price:      decimal.RequireFromString(price),
		IsWeighted: weighted,
		IsActive:   true,
	}
}

func TestDraftDefaults(t *testing.T) {
	t.Parallel()

	if got := NewDraft(product(false, "10.00")).Input(); got != "1" {
		t.Fatalf("count-sold default should be 1, got %q", got)
	}
	if got := NewDraft(product(true, "10.00")).Input(); got != "" {
		t.Fatalf("weight-sold default should be empty, got %q", got)
	}
}

func TestSubtotalTracksInput(t *testing.T) {
	t.Parallel()

	d := NewDraft(product(true, "9.99"))

	d.SetInput("0.5")
	if got := money.Format(d.Subtotal()); got != "5.00" {
		t.Fatalf("unexpected subtotal: %s", got)
	}

	d.SetInput("abc")
	if d.Subtotal().Sign() != 0 {
		t.Fatal("unparseable input must preview as zero")
	}
}

func TestConfirmValidation(t *testing.T) {
	t.Parallel()

	counted := NewDraft(product(false, "2.00"))
	for _, raw := range []string{"", "0", "-2", "abc", "1.5"} {
		counted.SetInput(raw)
		if _, err := counted.Confirm(); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("expected validation failure for %q", raw)
		}
	}

	counted.SetInput("3")
	got, err := counted.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected quantity: %s", got)
	}

	weighted := NewDraft(product(true, "2.00"))
	weighted.SetInput("0,250")
	gotW, err := weighted.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotW.Equal(decimal.RequireFromString("0.250")) {
		t.Fatalf("unexpected weight: %s", gotW)
	}
}
