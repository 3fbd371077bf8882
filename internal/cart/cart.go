package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

// Line is one product in the cart. Quantity is a positive integer for
// count-sold products and a positive decimal (kilograms) for weight-sold
// ones.
type Line struct {
	Product  backend.Product
	Quantity decimal.Decimal
}

// Subtotal is unit price × quantity at currency precision.
func (l Line) Subtotal() decimal.Decimal {
	return money.LineSubtotal(l.Product.Price, l.Quantity)
}

// Cart holds the in-progress sale for a single operator and terminal. Line
// order is insertion order and carries no meaning beyond display. At most
// one line exists per product id. Safe for concurrent use; the checkout
// flow clears it from its completion goroutine.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddOrIncrement merges quantity into the existing line for the product, or
// appends a new one. Stock availability is not checked here; the backend is
// authoritative and rejects overdrawn sales at submission.
func (c *Cart) AddOrIncrement(product backend.Product, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !product.IsWeighted && !quantity.IsInteger() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole number for this product")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			c.lines[i].Quantity = c.lines[i].Quantity.Add(quantity)
			return nil
		}
	}
	c.lines = append(c.lines, Line{Product: product, Quantity: quantity})
	return nil
}

// Remove drops the line for the product id; absent ids are a no-op.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart. Called after a confirmed sale.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct product lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// Total is recomputed on every read, never cached. Each line subtotal is
// rounded to two places before summing and the sum is rounded again.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := money.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return money.Round2(total)
}

// SaleItems packages the cart for sale creation: product ids and quantities
// only, prices resolved server-side.
func (c *Cart) SaleItems() []backend.SaleItemInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]backend.SaleItemInput, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, backend.SaleItemInput{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}
	return items
}
