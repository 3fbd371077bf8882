package cashier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

type api interface {
	CashierStatus(ctx context.Context) (*backend.CashierSnapshot, error)
	OpenCashier(ctx context.Context, initialBalance decimal.Decimal) (*backend.CashierSnapshot, error)
	CloseCashier(ctx context.Context, finalBalance decimal.Decimal) (*backend.CashierSnapshot, error)
}

// Snapshot is the last-fetched till state. Balances are server-computed;
// the client never derives them locally. FetchedAt makes staleness explicit:
// after any mutating action the snapshot must be re-fetched before gate
// decisions are trusted again.
type Snapshot struct {
	Status          enums.CashierStatus
	InitialBalance  decimal.Decimal
	TotalSold       decimal.Decimal
	ExpectedBalance decimal.Decimal
	FetchedAt       time.Time
}

// Open reports whether the snapshot shows an open till.
func (s *Snapshot) Open() bool {
	return s != nil && s.Status == enums.CashierStatusOpen
}

// Gate tracks till state for this terminal and gates the checkout flow.
// The gate is advisory: the backend re-validates on every sale, since
// another terminal sharing the cashier could have closed it meanwhile.
// Safe for concurrent use; the checkout flow marks it stale from its
// completion goroutine.
type Gate struct {
	api api
	log *logger.Logger

	mu    sync.Mutex
	last  *Snapshot
	stale bool
}

// NewGate builds a gate over the backend cashier operations.
func NewGate(api api, log *logger.Logger) (*Gate, error) {
	if api == nil {
		return nil, fmt.Errorf("cashier api required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Gate{api: api, log: log, stale: true}, nil
}

// Refresh fetches the current snapshot from the backend.
func (g *Gate) Refresh(ctx context.Context) (*Snapshot, error) {
	remote, err := g.api.CashierStatus(ctx)
	if err != nil {
		return nil, err
	}
	return g.adopt(remote), nil
}

// Snapshot returns the last-fetched state and whether it is still trustable.
func (g *Gate) Snapshot() (*Snapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, !g.stale && g.last != nil
}

// MarkStale invalidates the snapshot. Called after any action that can move
// money through the till, a completed sale in particular.
func (g *Gate) MarkStale() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stale = true
}

// OpenTill opens a till session with the given change float. A negative
// float is rejected client-side; zero is the documented default.
func (g *Gate) OpenTill(ctx context.Context, initialBalance decimal.Decimal) (*Snapshot, error) {
	if initialBalance.Sign() < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial balance cannot be negative")
	}
	remote, err := g.api.OpenCashier(ctx, money.Round2(initialBalance))
	if err != nil {
		return nil, err
	}
	snap := g.adopt(remote)
	g.log.Info(g.log.WithField(ctx, "initial_balance", money.Format(initialBalance)), "cashier opened")
	return snap, nil
}

// CloseTill closes the session with the counted drawer balance. Closing is
// irreversible from the terminal's point of view, so the caller must pass
// an explicit confirmation.
func (g *Gate) CloseTill(ctx context.Context, finalBalance decimal.Decimal, confirmed bool) (*Snapshot, error) {
	if !confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "closing the cashier requires confirmation")
	}
	if finalBalance.Sign() < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "final balance cannot be negative")
	}
	remote, err := g.api.CloseCashier(ctx, money.Round2(finalBalance))
	if err != nil {
		return nil, err
	}
	snap := g.adopt(remote)
	g.log.Info(g.log.WithField(ctx, "final_balance", money.Format(finalBalance)), "cashier closed")
	return snap, nil
}

// Permit authorizes entering the checkout flow. It refuses on a stale or
// missing snapshot (refresh first) and on a closed till (the operator is
// routed to the open action instead).
func (g *Gate) Permit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stale || g.last == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cashier snapshot is stale, refresh before checkout")
	}
	if g.last.Status != enums.CashierStatusOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cashier is closed").
			WithDetail("Abra o caixa para realizar vendas.")
	}
	return nil
}

func (g *Gate) adopt(remote *backend.CashierSnapshot) *Snapshot {
	snapshot := &Snapshot{
		Status:    remote.Status,
		FetchedAt: time.Now(),
	}
	if remote.InitialBalance != nil {
		snapshot.InitialBalance = *remote.InitialBalance
	}
	if remote.TotalSold != nil {
		snapshot.TotalSold = *remote.TotalSold
	}
	if remote.ExpectedBalance != nil {
		snapshot.ExpectedBalance = *remote.ExpectedBalance
	}
	g.mu.Lock()
	g.last = snapshot
	g.stale = false
	g.mu.Unlock()
	return snapshot
}
