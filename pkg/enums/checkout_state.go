package enums

// CheckoutState tracks the checkout flow from draft to settled sale.
type CheckoutState string

const (
	CheckoutStateIdle           CheckoutState = "idle"
	CheckoutStateReviewing      CheckoutState = "reviewing"
	CheckoutStateMethodSelected CheckoutState = "method_selected"
	CheckoutStateAmountEntered  CheckoutState = "amount_entered"
	CheckoutStateSubmittable    CheckoutState = "submittable"
	CheckoutStateSubmitting     CheckoutState = "submitting"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// Active reports whether a draft currently exists.
func (c CheckoutState) Active() bool {
	return c != CheckoutStateIdle && c != ""
}

// Cancelable reports whether the operator may discard the draft. Submitting
// is the only state that refuses cancel; the request is already on the wire.
func (c CheckoutState) Cancelable() bool {
	return c.Active() && c != CheckoutStateSubmitting
}
