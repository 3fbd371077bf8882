package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rcoutinho/pdvgo/internal/backend"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/metrics"
)

type api interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]backend.Product, error)
}

// Catalog caches the active product list for the sales screen. The cache is
// re-fetched on screen entry and after every accepted sale so displayed
// stock tracks the backend; it is never mutated locally.
type Catalog struct {
	mu        sync.RWMutex
	api       api
	log       *logger.Logger
	metrics   *metrics.TerminalMetrics
	products  []backend.Product
	fetchedAt time.Time
}

// New builds an empty catalog; call Refresh before serving lookups.
func New(api api, log *logger.Logger, m *metrics.TerminalMetrics) (*Catalog, error) {
	if api == nil {
		return nil, fmt.Errorf("product api required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Catalog{api: api, log: log, metrics: m}, nil
}

// Refresh replaces the cache with the backend's current active catalog.
func (c *Catalog) Refresh(ctx context.Context) error {
	products, err := c.api.ListProducts(ctx, true)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.products = products
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.log.Debug(c.log.WithField(ctx, "products", len(products)), "catalog refreshed")
	return nil
}

// FetchedAt reports when the cache was last replaced, zero if never.
func (c *Catalog) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Products returns a copy of the cached catalog.
func (c *Catalog) Products() []backend.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]backend.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Search filters the cache by case-insensitive substring on product name or
// barcode. An empty term returns the whole catalog.
func (c *Catalog) Search(term string) []backend.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	c.mu.RLock()
	defer c.mu.RUnlock()

	if term == "" {
		out := make([]backend.Product, len(c.products))
		copy(out, c.products)
		return out
	}

	var matches []backend.Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			matches = append(matches, p)
			continue
		}
		if p.Barcode != nil && strings.Contains(strings.ToLower(*p.Barcode), term) {
			matches = append(matches, p)
		}
	}
	return matches
}

// ByBarcode resolves a scanned code to the product with that exact barcode.
// Misses are a normal outcome (a foreign or mistyped code), reported as not
// found for the caller to surface.
func (c *Catalog) ByBarcode(code string) (*backend.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty barcode")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.products {
		if c.products[i].Barcode != nil && *c.products[i].Barcode == code {
			product := c.products[i]
			c.metrics.IncScanDetected()
			return &product, nil
		}
	}
	c.metrics.IncScanDetected()
	c.metrics.IncScanUnmatched()
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no product with barcode "+code).
		WithDetail("Produto não encontrado: " + code)
}

// ResolveSearch implements the search box's Enter shortcut. An exact
// barcode or name match wins even when the term also prefixes other
// products; otherwise a single filtered hit resolves. Zero or many
// ambiguous matches resolve to nothing and the operator picks from the
// list.
func (c *Catalog) ResolveSearch(term string) (*backend.Product, bool) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return nil, false
	}

	c.mu.RLock()
	for i := range c.products {
		exactBarcode := c.products[i].Barcode != nil && strings.ToLower(*c.products[i].Barcode) == normalized
		exactName := strings.ToLower(c.products[i].Name) == normalized
		if exactBarcode || exactName {
			product := c.products[i]
			c.mu.RUnlock()
			return &product, true
		}
	}
	c.mu.RUnlock()

	matches := c.Search(term)
	if len(matches) != 1 {
		return nil, false
	}
	product := matches[0]
	return &product, true
}
