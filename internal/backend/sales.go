package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// CreateSale submits a finalized sale. The idempotency key shields against a
// duplicate submission reaching the backend twice if the first response was
// lost in transit.
func (c *Client) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	var sale Sale
	err := c.do(ctx, requestSpec{
		operation: "create_sale",
		method:    http.MethodPost,
		path:      "/sales/",
		jsonBody:  input,
		headers: map[string]string{
			"Idempotency-Key": uuid.NewString(),
		},
	}, &sale)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSalesBySession returns the sales recorded under one cashier session,
// including line items and seller.
func (c *Client) ListSalesBySession(ctx context.Context, sessionID int64) ([]Sale, error) {
	query := url.Values{}
	query.Set("session_id", strconv.FormatInt(sessionID, 10))
	var sales []Sale
	err := c.do(ctx, requestSpec{
		operation: "list_sales_by_session",
		method:    http.MethodGet,
		path:      "/sales/",
		query:     query,
	}, &sales)
	if err != nil {
		return nil, err
	}
	return sales, nil
}
