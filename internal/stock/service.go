package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

const dateLayout = "2006-01-02"

type api interface {
	StockHistory(ctx context.Context, filter backend.StockHistoryFilter) ([]backend.StockMovement, error)
	AddStock(ctx context.Context, productID int64, quantity decimal.Decimal) error
}

type sessions interface {
	Snapshot() session.Snapshot
}

// Service backs the stock history screen: filtered movement listing plus
// manual stock entries.
type Service struct {
	api      api
	sessions sessions
	log      *logger.Logger
}

// NewService wires the stock operations.
func NewService(api api, sessions sessions, log *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("stock api required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, sessions: sessions, log: log}, nil
}

func (s *Service) requireManager() error {
	snap := s.sessions.Snapshot()
	if !snap.Authenticated() || !snap.Credentials.Role.AtLeast(enums.RoleManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "stock history requires manager access")
	}
	return nil
}

func checkFilter(filter backend.StockHistoryFilter) error {
	if filter.MovementType != "" && !filter.MovementType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown movement type")
	}
	var start, end time.Time
	var err error
	if filter.StartDate != "" {
		if start, err = time.Parse(dateLayout, filter.StartDate); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "start date must be YYYY-MM-DD")
		}
	}
	if filter.EndDate != "" {
		if end, err = time.Parse(dateLayout, filter.EndDate); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "end date must be YYYY-MM-DD")
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	return nil
}

// History lists inventory movements matching the filter.
func (s *Service) History(ctx context.Context, filter backend.StockHistoryFilter) ([]backend.StockMovement, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	return s.api.StockHistory(ctx, filter)
}

// AddEntry registers a manual stock entry. The quantity must be positive;
// losses and corrections are registered server-side, not from the terminal.
func (s *Service) AddEntry(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	if err := s.requireManager(); err != nil {
		return err
	}
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.api.AddStock(ctx, productID, quantity); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "product_id", productID), "stock entry registered")
	return nil
}

// Totals sums movement quantities by type for the screen's summary strip.
func Totals(movements []backend.StockMovement) map[enums.MovementType]decimal.Decimal {
	totals := make(map[enums.MovementType]decimal.Decimal)
	for _, m := range movements {
		totals[m.MovementType] = totals[m.MovementType].Add(m.QuantityChange.Abs())
	}
	return totals
}
