package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type stubAPI struct {
	created     []backend.ProductInput
	deactivated []int64
}

func (s *stubAPI) ListProducts(ctx context.Context, activeOnly bool) ([]backend.Product, error) {
	return nil, nil
}

func (s *stubAPI) CreateProduct(ctx context.Context, input backend.ProductInput) (*backend.Product, error) {
	s.created = append(s.created, input)
	return &backend.Product{ID: int64(len(s.created)), Name: input.Name}, nil
}

func (s *stubAPI) UpdateProduct(ctx context.Context, id int64, input backend.ProductInput) (*backend.Product, error) {
	return &backend.Product{ID: id, Name: input.Name}, nil
}

func (s *stubAPI) DeactivateProduct(ctx context.Context, id int64) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

type stubSessions struct {
	role enums.Role
}

func (s stubSessions) Snapshot() session.Snapshot {
	if s.role == "" {
		return session.Snapshot{}
	}
	return session.Snapshot{Credentials: &session.Credentials{Token: "tok", Role: s.role}}
}

func newTestService(t *testing.T, api *stubAPI, role enums.Role) *Service {
	t.Helper()
	svc, err := NewService(api, stubSessions{role: role}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validInput() backend.ProductInput {
	return backend.ProductInput{
		Name:      "Café Torrado",
		Price:     decimal.RequireFromString("10.00"),
		CostPrice: decimal.RequireFromString("6.00"),
	}
}

func TestSellerCannotManageProducts(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api, enums.RoleSeller)

	if _, err := svc.Create(context.Background(), validInput()); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Deactivate(context.Background(), 1); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(api.created) != 0 || len(api.deactivated) != 0 {
		t.Fatal("forbidden operations must not reach the backend")
	}
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api, enums.RoleManager)

	cases := []struct {
		name  string
		mut   func(*backend.ProductInput)
	}{
		{"missing name", func(in *backend.ProductInput) { in.Name = "" }},
		{"zero price", func(in *backend.ProductInput) { in.Price = decimal.Zero }},
		{"negative cost", func(in *backend.ProductInput) { in.CostPrice = decimal.RequireFromString("-1") }},
		{"negative min stock", func(in *backend.ProductInput) { in.MinStock = decimal.RequireFromString("-1") }},
		{"fractional unit stock", func(in *backend.ProductInput) {
			stock := decimal.RequireFromString("1.5")
			in.Stock = &stock
		}},
	}
	for _, tc := range cases {
		input := validInput()
		tc.mut(&input)
		if _, err := svc.Create(context.Background(), input); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if len(api.created) != 0 {
		t.Fatal("invalid input must not reach the backend")
	}

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestWeightedProductAcceptsFractionalStock(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAPI{}, enums.RoleManager)
	input := validInput()
	weighted := true
	stock := decimal.RequireFromString("2.750")
	input.IsWeighted = &weighted
	input.Stock = &stock

	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("weighted product rejected: %v", err)
	}
}

func TestLowStockHighlightsActiveBelowMinimum(t *testing.T) {
	t.Parallel()

	products := []backend.Product{
		{ID: 1, IsActive: true, StockQuantity: decimal.NewFromInt(2), MinStock: decimal.NewFromInt(5)},
		{ID: 2, IsActive: true, StockQuantity: decimal.NewFromInt(9), MinStock: decimal.NewFromInt(5)},
		{ID: 3, IsActive: false, StockQuantity: decimal.Zero, MinStock: decimal.NewFromInt(5)},
		{ID: 4, IsActive: true, StockQuantity: decimal.Zero, MinStock: decimal.Zero},
	}
	low := LowStock(products)
	if len(low) != 1 || low[0].ID != 1 {
		t.Fatalf("unexpected low stock set: %+v", low)
	}
}
