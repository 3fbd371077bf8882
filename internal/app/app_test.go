package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/scan"
	"github.com/rcoutinho/pdvgo/pkg/config"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

// fakeBackend is an in-memory rendition of the POS server: login, catalog,
// cashier accounting, and sale settlement.
type fakeBackend struct {
	mu         sync.Mutex
	products   []backend.Product
	cashier    string
	initial    decimal.Decimal
	sold       decimal.Decimal
	sales      int
	terminalID string
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/token", func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		if req.PostFormValue("password") != "s3nha" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "Usuário ou senha incorretos"})
			return
		}
		writeJSON(w, map[string]string{
			"access_token": "tok-1",
			"name":         "Maria",
			"role":         "admin",
		})
	})
	r.Get("/products/", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.products)
	})
	r.Get("/cashier/status", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.terminalID = req.Header.Get("x-terminal-id")
		writeJSON(w, f.snapshot())
	})
	r.Post("/cashier/open", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			InitialBalance decimal.Decimal `json:"initial_balance"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cashier = "open"
		f.initial = body.InitialBalance
		f.sold = decimal.Zero
		writeJSON(w, f.snapshot())
	})
	r.Post("/sales/", func(w http.ResponseWriter, req *http.Request) {
		var input backend.CreateSaleInput
		_ = json.NewDecoder(req.Body).Decode(&input)
		f.mu.Lock()
		defer f.mu.Unlock()
		total := decimal.Zero
		for _, item := range input.Items {
			for i := range f.products {
				if f.products[i].ID == item.ProductID {
					total = total.Add(f.products[i].Price.Mul(item.Quantity))
					f.products[i].StockQuantity = f.products[i].StockQuantity.Sub(item.Quantity)
				}
			}
		}
		f.sold = f.sold.Add(total)
		f.sales++
		writeJSON(w, map[string]any{"id": f.sales, "total_amount": total, "payment_method": input.PaymentMethod})
	})
	return r
}

func (f *fakeBackend) snapshot() map[string]any {
	snap := map[string]any{"status": f.cashier}
	if f.cashier == "open" {
		snap["initial_balance"] = f.initial
		snap["total_sold"] = f.sold
		snap["expected_balance"] = f.initial.Add(f.sold)
	}
	return snap
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func strptr(s string) *string { return &s }

func newTestApp(t *testing.T, fake *fakeBackend) *App {
	t.Helper()
	server := httptest.NewServer(fake.router())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		API:      config.APIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second},
		Terminal: config.TerminalConfig{DefaultName: "caixa-01"},
		Scan:     config.ScanConfig{InterKeyTolerance: 100 * time.Millisecond, MinLength: 3},
		Store:    config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "pdv.db")},
		// Addr left empty: no diagnostics listener in tests.
	}
	a, err := New(cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return a
}

func defaultFake() *fakeBackend {
	return &fakeBackend{
		cashier: "closed",
		products: []backend.Product{
			{ID: 1, Name: "Café", Barcode: strptr("789123"), Price: decimal.RequireFromString("10.00"), StockQuantity: decimal.NewFromInt(50), IsActive: true},
		},
	}
}

func TestTerminalSellsFromScanToSettlement(t *testing.T) {
	t.Parallel()

	fake := defaultFake()
	a := newTestApp(t, fake)
	ctx := context.Background()

	if err := a.Login(ctx, "maria", "s3nha"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !a.Guard.Snapshot().Authenticated() {
		t.Fatal("expected authenticated session")
	}
	if a.Store.Token() != "tok-1" {
		t.Fatal("credential must be persisted")
	}

	if _, err := a.Gate.OpenTill(ctx, decimal.RequireFromString("50.00")); err != nil {
		t.Fatalf("open till: %v", err)
	}

	// Scanner burst for the coffee barcode, twice.
	at := time.Now()
	for i := 0; i < 2; i++ {
		for _, r := range "789123" {
			if _, err := a.HandleKey(ctx, scan.Char(r, at)); err != nil {
				t.Fatalf("key: %v", err)
			}
			at = at.Add(10 * time.Millisecond)
		}
		if _, err := a.HandleKey(ctx, scan.Enter(at)); err != nil {
			t.Fatalf("enter: %v", err)
		}
		at = at.Add(10 * time.Millisecond)
	}
	if a.Cart.Len() != 1 {
		t.Fatalf("scans of one product must merge, got %d lines", a.Cart.Len())
	}
	if money.Format(a.Cart.Total()) != "20.00" {
		t.Fatalf("unexpected total: %s", a.Cart.Total())
	}

	if err := a.Flow.Begin(); err != nil {
		t.Fatalf("begin checkout: %v", err)
	}
	if err := a.Flow.EnterTendered("20.00"); err != nil {
		t.Fatalf("tender: %v", err)
	}
	if err := a.Flow.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, func() bool { return a.Cart.IsEmpty() }, "cart cleared after sale")
	waitFor(t, func() bool {
		snap, ok := a.Gate.Snapshot()
		return ok && money.Format(snap.ExpectedBalance) == "70.00"
	}, "expected balance refreshed to 70.00")
	waitFor(t, func() bool {
		products := a.Catalog.Products()
		return len(products) == 1 && products[0].StockQuantity.Equal(decimal.NewFromInt(48))
	}, "catalog stock refreshed after sale")
}

func TestScanOfUnknownBarcodeIsSurfaced(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, defaultFake())
	ctx := context.Background()
	if err := a.Login(ctx, "maria", "s3nha"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := a.AddScanned(ctx, "000000")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if !a.Cart.IsEmpty() {
		t.Fatal("unknown barcode must not touch the cart")
	}
}

func TestSessionRestoresAcrossRestart(t *testing.T) {
	t.Parallel()

	fake := defaultFake()
	server := httptest.NewServer(fake.router())
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "pdv.db")
	cfg := &config.Config{
		API:   config.APIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second},
		Scan:  config.ScanConfig{InterKeyTolerance: 100 * time.Millisecond, MinLength: 3},
		Store: config.StoreConfig{SQLitePath: path},
	}

	first, err := New(cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Persist a token shaped like the backend's; restore parses it.
	token := testToken(t)
	if err := first.Store.SaveCredential(context.Background(), token, "Maria", enums.RoleAdmin); err != nil {
		t.Fatalf("save credential: %v", err)
	}
	if err := first.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := New(cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("reopen app: %v", err)
	}
	t.Cleanup(func() { second.Close(context.Background()) })
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := second.Guard.Snapshot()
	if !snap.Authenticated() || snap.Credentials.Operator != "Maria" {
		t.Fatalf("expected restored session, got %+v", snap)
	}
}

func testToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "maria",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
