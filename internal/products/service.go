package products

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type api interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]backend.Product, error)
	CreateProduct(ctx context.Context, input backend.ProductInput) (*backend.Product, error)
	UpdateProduct(ctx context.Context, id int64, input backend.ProductInput) (*backend.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
}

type sessions interface {
	Snapshot() session.Snapshot
}

// Service is the product management screen's backing service. Catalog
// writes are manager territory; the backend enforces the same rule, this
// check only spares a doomed round trip.
type Service struct {
	api      api
	sessions sessions
	validate *validator.Validate
	log      *logger.Logger
}

// NewService wires the product admin operations.
func NewService(api api, sessions sessions, log *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("product api required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		api:      api,
		sessions: sessions,
		validate: validator.New(),
		log:      log,
	}, nil
}

func (s *Service) requireManager() error {
	snap := s.sessions.Snapshot()
	if !snap.Authenticated() || !snap.Credentials.Role.AtLeast(enums.RoleManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product management requires manager access")
	}
	return nil
}

func (s *Service) checkInput(input backend.ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product")
	}
	if input.Price.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.CostPrice.Sign() < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}
	if input.MinStock.Sign() < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum stock cannot be negative")
	}
	weighted := input.IsWeighted != nil && *input.IsWeighted
	if !weighted && input.Stock != nil && !input.Stock.IsInteger() {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be a whole number for unit products")
	}
	return nil
}

// List returns the full catalog, inactive products included, for the admin
// table.
func (s *Service) List(ctx context.Context) ([]backend.Product, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	return s.api.ListProducts(ctx, false)
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, input backend.ProductInput) (*backend.Product, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	created, err := s.api.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	s.log.Info(s.log.WithField(ctx, "product_id", created.ID), "product created")
	return created, nil
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, id int64, input backend.ProductInput) (*backend.Product, error) {
	if err := s.requireManager(); err != nil {
		return nil, err
	}
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	return s.api.UpdateProduct(ctx, id, input)
}

// Deactivate removes a product from the active catalog; its sales history
// stays intact server-side.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.requireManager(); err != nil {
		return err
	}
	if err := s.api.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "product_id", id), "product deactivated")
	return nil
}

// LowStock filters products whose stock fell to or below their minimum.
// Computed client-side from the listing for the admin table's highlight.
func LowStock(products []backend.Product) []backend.Product {
	var low []backend.Product
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		if p.StockQuantity.LessThanOrEqual(p.MinStock) && p.MinStock.GreaterThan(decimal.Zero) {
			low = append(low, p)
		}
	}
	return low
}
