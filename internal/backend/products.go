package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// ProductInput is the create/update payload for a catalog product. Stock
// quantity is deliberately absent; it only moves through stock entries and
// sales.
type ProductInput struct {
	Name       string           `json:"name" validate:"required"`
	Barcode    *string          `json:"barcode"`
	Category   *string          `json:"category"`
	Price      decimal.Decimal  `json:"price"`
	CostPrice  decimal.Decimal  `json:"cost_price"`
	MinStock   decimal.Decimal  `json:"min_stock"`
	IsWeighted *bool            `json:"is_weighted,omitempty"`
	Stock      *decimal.Decimal `json:"stock_quantity,omitempty"`
}

// ListProducts fetches the catalog, optionally restricted to active products.
func (c *Client) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("active_only", "true")
	}
	var products []Product
	err := c.do(ctx, requestSpec{
		operation: "list_products",
		method:    http.MethodGet,
		path:      "/products/",
		query:     query,
	}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct registers a new catalog product.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	var created Product
	err := c.do(ctx, requestSpec{
		operation: "create_product",
		method:    http.MethodPost,
		path:      "/products/",
		jsonBody:  input,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	var updated Product
	err := c.do(ctx, requestSpec{
		operation: "update_product",
		method:    http.MethodPut,
		path:      fmt.Sprintf("/products/%d", id),
		jsonBody:  input,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeactivateProduct removes a product from the active catalog.
func (c *Client) DeactivateProduct(ctx context.Context, id int64) error {
	return c.do(ctx, requestSpec{
		operation: "deactivate_product",
		method:    http.MethodDelete,
		path:      fmt.Sprintf("/products/%d", id),
	}, nil)
}

// AddStock registers a manual stock entry for a product.
func (c *Client) AddStock(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	query := url.Values{}
	query.Set("quantity", quantity.String())
	return c.do(ctx, requestSpec{
		operation: "add_stock",
		method:    http.MethodPost,
		path:      fmt.Sprintf("/products/%d/stock", productID),
		query:     query,
	}, nil)
}
