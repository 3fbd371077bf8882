package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rcoutinho/pdvgo/pkg/enums"
)

// StockHistoryFilter narrows the movement history query. Zero values mean
// "no filter"; dates are YYYY-MM-DD.
type StockHistoryFilter struct {
	MovementType enums.MovementType
	StartDate    string
	EndDate      string
}

// StockHistory lists inventory movements matching the filter.
func (c *Client) StockHistory(ctx context.Context, filter StockHistoryFilter) ([]StockMovement, error) {
	query := url.Values{}
	if filter.MovementType != "" {
		query.Set("movement_type", filter.MovementType.String())
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	var movements []StockMovement
	err := c.do(ctx, requestSpec{
		operation: "stock_history",
		method:    http.MethodGet,
		path:      "/stock/history",
		query:     query,
	}, &movements)
	if err != nil {
		return nil, err
	}
	return movements, nil
}
