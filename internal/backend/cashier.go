package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type openCashierInput struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type closeCashierInput struct {
	FinalBalance decimal.Decimal `json:"final_balance"`
}

// CashierStatus fetches the current till snapshot for this terminal.
func (c *Client) CashierStatus(ctx context.Context) (*CashierSnapshot, error) {
	var snapshot CashierSnapshot
	err := c.do(ctx, requestSpec{
		operation: "cashier_status",
		method:    http.MethodGet,
		path:      "/cashier/status",
	}, &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// OpenCashier opens a till session with the given change float.
func (c *Client) OpenCashier(ctx context.Context, initialBalance decimal.Decimal) (*CashierSnapshot, error) {
	var snapshot CashierSnapshot
	err := c.do(ctx, requestSpec{
		operation: "open_cashier",
		method:    http.MethodPost,
		path:      "/cashier/open",
		jsonBody:  openCashierInput{InitialBalance: initialBalance},
	}, &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CloseCashier closes the till session with the counted drawer balance.
func (c *Client) CloseCashier(ctx context.Context, finalBalance decimal.Decimal) (*CashierSnapshot, error) {
	var snapshot CashierSnapshot
	err := c.do(ctx, requestSpec{
		operation: "close_cashier",
		method:    http.MethodPost,
		path:      "/cashier/close",
		jsonBody:  closeCashierInput{FinalBalance: finalBalance},
	}, &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CashierHistory lists the till sessions for a calendar day (YYYY-MM-DD).
func (c *Client) CashierHistory(ctx context.Context, day string) ([]CashierSession, error) {
	query := url.Values{}
	query.Set("day", day)
	var sessions []CashierSession
	err := c.do(ctx, requestSpec{
		operation: "cashier_history",
		method:    http.MethodGet,
		path:      "/cashier/history",
		query:     query,
	}, &sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
