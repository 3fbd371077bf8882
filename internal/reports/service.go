package reports

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
	"github.com/rcoutinho/pdvgo/pkg/money"
)

const dateLayout = "2006-01-02"

type api interface {
	CashierHistory(ctx context.Context, day string) ([]backend.CashierSession, error)
	ListSalesBySession(ctx context.Context, sessionID int64) ([]backend.Sale, error)
}

type sessions interface {
	Snapshot() session.Snapshot
}

// Service backs the sales report screen: till sessions for a chosen day,
// expandable into the sales each one recorded.
type Service struct {
	api      api
	sessions sessions
	log      *logger.Logger
}

// NewService wires the reporting operations.
func NewService(api api, sessions sessions, log *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("reports api required")
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
		return pkgerrors.New(pkgerrors.CodeForbidden, "reports require manager access")
	}
	return nil
}

// SessionsForDay lists the till sessions of a calendar day (YYYY-MM-DD).
func (s *Service) SessionsForDay(ctx context.Context, day string) ([]backend.CashierSession, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	if _, err := time.Parse(dateLayout, day); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "day must be YYYY-MM-DD")
	}
	return s.api.CashierHistory(ctx, day)
}

// SessionSales returns the sales recorded under one till session.
func (s *Service) SessionSales(ctx context.Context, sessionID int64) ([]backend.Sale, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	if sessionID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.api.ListSalesBySession(ctx, sessionID)
}

// Summary aggregates a session's sales for the report header.
type Summary struct {
	Count    int
	Total    decimal.Decimal
	ByMethod map[enums.PaymentMethod]decimal.Decimal
}

// Summarize totals sales by payment method. Amounts come from the backend
// already settled; this only groups and sums for display.
func Summarize(sales []backend.Sale) Summary {
	summary := Summary{
		Total:    money.Zero,
		ByMethod: make(map[enums.PaymentMethod]decimal.Decimal),
	}
	for _, sale := range sales {
		summary.Count++
		summary.Total = summary.Total.Add(sale.TotalAmount)
		summary.ByMethod[sale.PaymentMethod] = summary.ByMethod[sale.PaymentMethod].Add(sale.TotalAmount)
	}
	summary.Total = money.Round2(summary.Total)
	return summary
}
