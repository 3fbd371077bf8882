package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/pkg/config"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type staticCreds struct {
	token    string
	terminal string
}

func (s staticCreds) Token() string      { return s.token }
func (s staticCreds) TerminalID() string { return s.terminal }

func newTestClient(t *testing.T, handler http.Handler, creds CredentialSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(config.APIConfig{BaseURL: server.URL}, creds, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestRequestCarriesAuthAndTerminalHeaders(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/products/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.Header.Get("x-terminal-id"); got != "CAIXA-01" {
			t.Errorf("unexpected terminal header: %q", got)
		}
		if got := r.URL.Query().Get("active_only"); got != "true" {
			t.Errorf("unexpected active_only: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Café","price":10.5,"stock_quantity":3,"is_active":true,"is_weighted":false}]`))
	})

	client := newTestClient(t, router, staticCreds{token: "tok-123", terminal: "CAIXA-01"})

	products, err := client.ListProducts(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Café" {
		t.Fatalf("unexpected products: %+v", products)
	}
	if !products[0].Price.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected price: %s", products[0].Price)
	}
}

func TestLoginSendsFormWithoutBearer(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("login must not carry a bearer token, got %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostFormValue("username") != "maria" || r.PostFormValue("password") != "s3nha" {
			t.Errorf("unexpected form values: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-9","name":"Maria","role":"manager"}`))
	})

	client := newTestClient(t, router, staticCreds{terminal: "CAIXA-02"})

	result, err := client.Login(context.Background(), "maria", "s3nha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Role != enums.RoleManager || result.AccessToken != "tok-9" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreateSaleSurfacesBackendDetail(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Post("/sales/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("expected idempotency key on sale creation")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Estoque insuficiente para Café"}`))
	})

	client := newTestClient(t, router, staticCreds{token: "tok"})

	_, err := client.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []SaleItemInput{{ProductID: 1, Quantity: decimal.NewFromInt(2)}},
	})
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeRemoteRejected {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
	if typed.Detail() != "Estoque insuficiente para Café" {
		t.Fatalf("detail not preserved verbatim: %q", typed.Detail())
	}
}

func TestExpiredTokenMapsToSessionExpired(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/cashier/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token expirado"}`))
	})

	client := newTestClient(t, router, staticCreds{token: "stale"})

	_, err := client.CashierStatus(context.Background())
	if got := pkgerrors.CodeOf(err); got != pkgerrors.CodeSessionExpired {
		t.Fatalf("unexpected code: %s", got)
	}
}

func TestUnreachableBackendMapsToTransport(t *testing.T) {
	t.Parallel()

	client, err := New(config.APIConfig{BaseURL: "http://127.0.0.1:1"}, staticCreds{}, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ListProducts(context.Background(), true)
	if got := pkgerrors.CodeOf(err); got != pkgerrors.CodeTransport {
		t.Fatalf("unexpected code: %s", got)
	}
}
