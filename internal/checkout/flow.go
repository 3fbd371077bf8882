package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/cart"
	"github.com/rcoutinho/pdvgo/internal/cashier"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/metrics"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

// SaleSubmitter is the single backend operation the flow needs.
type SaleSubmitter interface {
	CreateSale(ctx context.Context, input backend.CreateSaleInput) (*backend.Sale, error)
}

// Outcome reports the result of a submission attempt to the caller.
type Outcome struct {
	Accepted bool
	Sale     *backend.Sale
	Err      error
}

// Params wires a Flow.
type Params struct {
	Cart      *cart.Cart
	Gate      *cashier.Gate
	Submitter SaleSubmitter
	Logger    *logger.Logger
	Metrics   *metrics.TerminalMetrics
	// Notify receives the outcome of each finished submission; nil is
	// allowed. Called outside the flow's lock.
	Notify func(Outcome)
}

// Flow drives a sale from cart review to settlement:
//
//	idle → reviewing → method-selected → [amount-entered →] submittable
//	     → submitting → idle (accepted) | submittable (rejected)
//
// At most one submission is in flight; a second submit is suppressed, not
// queued. Completions are tagged with the attempt that produced them so a
// response arriving after the draft was abandoned is discarded instead of
// corrupting a newer draft.
type Flow struct {
	mu sync.Mutex

	cart      *cart.Cart
	gate      *cashier.Gate
	submitter SaleSubmitter
	log       *logger.Logger
	metrics   *metrics.TerminalMetrics
	notify    func(Outcome)

	state       enums.CheckoutState
	method      enums.PaymentMethod
	tenderedRaw string
	total       decimal.Decimal

	attempt  uint64
	inFlight bool
	lastErr  *pkgerrors.Error
}

// NewFlow builds an idle checkout flow.
func NewFlow(params Params) (*Flow, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("cashier gate required")
	}
	if params.Submitter == nil {
		return nil, fmt.Errorf("sale submitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Flow{
		cart:      params.Cart,
		gate:      params.Gate,
		submitter: params.Submitter,
		log:       params.Logger,
		metrics:   params.Metrics,
		notify:    params.Notify,
		state:     enums.CheckoutStateIdle,
	}, nil
}

// State returns the current flow state.
func (f *Flow) State() enums.CheckoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Method returns the selected payment method.
func (f *Flow) Method() enums.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// LastError returns the failure of the most recent submission, if any. It
// is cleared when a draft is opened or a submission is accepted.
func (f *Flow) LastError() *pkgerrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Begin opens a checkout draft over the current cart. It requires a
// non-empty cart and a fresh, open cashier snapshot. Cash is preselected.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Active() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress")
	}
	if f.cart.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := f.gate.Permit(); err != nil {
		return err
	}

	f.total = f.cart.Total()
	f.method = enums.PaymentMethodCash
	f.tenderedRaw = ""
	f.lastErr = nil
	f.state = enums.CheckoutStateReviewing
	return nil
}

// Total returns the cart total frozen when the draft was opened.
func (f *Flow) Total() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// SelectMethod chooses the payment method. Non-cash methods are
// submittable immediately; cash waits for a tendered amount.
func (f *Flow) SelectMethod(method enums.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Active() || f.state == enums.CheckoutStateSubmitting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no draft accepting a payment method")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	f.method = method
	f.tenderedRaw = ""
	if method.RequiresTenderedAmount() {
		f.state = enums.CheckoutStateMethodSelected
	} else {
		f.state = enums.CheckoutStateSubmittable
	}
	return nil
}

// EnterTendered records the cash amount typed so far. Called on every
// keystroke; the draft becomes submittable once the amount covers the
// total.
func (f *Flow) EnterTendered(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Active() || f.state == enums.CheckoutStateSubmitting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no draft accepting a tendered amount")
	}
	if !f.method.RequiresTenderedAmount() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "selected method takes no tendered amount")
	}

	f.tenderedRaw = raw
	if f.tenderedLocked().GreaterThanOrEqual(f.total) {
		f.state = enums.CheckoutStateSubmittable
	} else {
		f.state = enums.CheckoutStateAmountEntered
	}
	return nil
}

// Change is tendered − total, recomputed from the raw input on every read.
// It goes negative while the tendered amount is insufficient; that is
// display feedback, not an accepted transaction.
func (f *Flow) Change() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return money.Round2(f.tenderedLocked().Sub(f.total))
}

func (f *Flow) tenderedLocked() decimal.Decimal {
	parsed, err := money.Parse(f.tenderedRaw)
	if err != nil {
		return money.Zero
	}
	return parsed
}

// Submit sends the sale. Refused unless the draft is submittable; for cash
// it re-checks that the tendered amount covers the total. A submit while a
// request is in flight is suppressed.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()

	if f.inFlight || f.state == enums.CheckoutStateSubmitting {
		f.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "a submission is already in flight")
	}
	if f.state != enums.CheckoutStateSubmittable {
		f.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "draft is not ready to submit")
	}
	if f.method.RequiresTenderedAmount() && f.tenderedLocked().LessThan(f.total) {
		f.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "tendered amount is less than the total").
			WithDetail("O valor recebido é menor que o total da venda!")
	}

	input := backend.CreateSaleInput{
		PaymentMethod: f.method,
		Items:         f.cart.SaleItems(),
	}
	f.state = enums.CheckoutStateSubmitting
	f.inFlight = true
	attempt := f.attempt
	f.mu.Unlock()

	go func() {
		sale, err := f.submitter.CreateSale(ctx, input)
		f.finish(ctx, attempt, sale, err)
	}()
	return nil
}

// Cancel discards the draft without touching the cart. Refused while a
// submission is in flight; use Abandon when tearing the flow down.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Active() {
		return nil
	}
	if !f.state.Cancelable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot cancel while submitting")
	}
	f.resetLocked()
	return nil
}

// Abandon force-discards the draft, e.g. on logout or terminal teardown.
// An in-flight request is not cancelled; its eventual response no longer
// matches the current attempt and is ignored.
func (f *Flow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Flow) resetLocked() {
	f.attempt++
	f.inFlight = false
	f.state = enums.CheckoutStateIdle
	f.method = ""
	f.tenderedRaw = ""
	f.total = money.Zero
}

func (f *Flow) finish(ctx context.Context, attempt uint64, sale *backend.Sale, err error) {
	f.mu.Lock()
	if attempt != f.attempt || !f.inFlight {
		// The operator moved on; this response belongs to a dead draft.
		f.mu.Unlock()
		f.log.Warn(ctx, "discarding sale response for abandoned draft")
		return
	}
	f.inFlight = false

	var outcome Outcome
	if err != nil {
		typed := pkgerrors.As(err)
		if typed == nil {
			typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale")
		}
		f.lastErr = typed
		f.state = enums.CheckoutStateSubmittable
		f.metrics.IncSaleFailed(string(typed.Code()))
		outcome = Outcome{Err: typed}
	} else {
		method := f.method
		f.lastErr = nil
		f.cart.Clear()
		f.gate.MarkStale()
		f.resetLocked()
		f.metrics.IncSaleSubmitted(method.String())
		outcome = Outcome{Accepted: true, Sale: sale}
	}
	notify := f.notify
	f.mu.Unlock()

	if err != nil {
		f.log.Warn(ctx, "sale submission failed")
	} else {
		f.log.Info(ctx, "sale accepted")
	}
	if notify != nil {
		notify(outcome)
	}
}
