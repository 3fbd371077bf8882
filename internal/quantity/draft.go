package quantity

import (
	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

// Draft captures the quantity being typed for a selected product before it
// is committed to the cart. Count-sold products start at 1; weight-sold
// products start empty so the scale reading can be typed in.
type Draft struct {
	product backend.Product
	raw     string
}

// NewDraft seeds a draft for the product.
func NewDraft(product backend.Product) *Draft {
	raw := "1"
	if product.IsWeighted {
		raw = ""
	}
	return &Draft{product: product, raw: raw}
}

// Product returns the product the draft is for.
func (d *Draft) Product() backend.Product {
	return d.product
}

// SetInput replaces the raw operator input.
func (d *Draft) SetInput(raw string) {
	d.raw = raw
}

// Input returns the current raw input.
func (d *Draft) Input() string {
	return d.raw
}

// Subtotal is the live quantity × unit price preview. Unparseable input
// previews as zero rather than erroring; rejection happens on confirm.
func (d *Draft) Subtotal() decimal.Decimal {
	parsed, err := money.Parse(d.raw)
	if err != nil || parsed.Sign() <= 0 {
		return money.Zero
	}
	return money.LineSubtotal(d.product.Price, parsed)
}

// Confirm validates and returns the quantity to add. Non-positive or
// unparseable input fails; count-sold products additionally require a whole
// number.
func (d *Draft) Confirm() (decimal.Decimal, error) {
	parsed, err := money.Parse(d.raw)
	if err != nil {
		return money.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity not a number")
	}
	if parsed.Sign() <= 0 {
		return money.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !d.product.IsWeighted && !parsed.IsInteger() {
		return money.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole number for this product")
	}
	return parsed, nil
}
