package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/backup"
	"github.com/rcoutinho/pdvgo/internal/cart"
	"github.com/rcoutinho/pdvgo/internal/cashier"
	"github.com/rcoutinho/pdvgo/internal/catalog"
	"github.com/rcoutinho/pdvgo/internal/checkout"
	"github.com/rcoutinho/pdvgo/internal/diag"
	"github.com/rcoutinho/pdvgo/internal/products"
	"github.com/rcoutinho/pdvgo/internal/quantity"
	"github.com/rcoutinho/pdvgo/internal/reports"
	"github.com/rcoutinho/pdvgo/internal/scan"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/internal/stock"
	"github.com/rcoutinho/pdvgo/internal/terminal"
	"github.com/rcoutinho/pdvgo/internal/users"
	"github.com/rcoutinho/pdvgo/pkg/config"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/metrics"
)

// App is the composition root of one running terminal. It owns the wiring
// between the local stores, the backend client, and the screen services,
// plus the lifecycle of the diagnostics listener.
type App struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.TerminalMetrics

	Store    *terminal.Store
	Client   *backend.Client
	Guard    *session.Guard
	Cart     *cart.Cart
	Gate     *cashier.Gate
	Catalog  *catalog.Catalog
	Detector *scan.Detector
	Flow     *checkout.Flow

	Products *products.Service
	Users    *users.Service
	Stock    *stock.Service
	Reports  *reports.Service
	Backup   *backup.Service

	diag *diag.Server
}

// New wires the whole terminal from configuration. Nothing talks to the
// backend yet; Start does the first fetches.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	registry := prometheus.NewRegistry()
	terminalMetrics := metrics.NewTerminalMetrics(registry)

	store, err := terminal.OpenStore(cfg.Store.SQLitePath, cfg.Terminal.DefaultName, log)
	if err != nil {
		return nil, err
	}

	client, err := backend.New(cfg.API, store, log, terminalMetrics)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		metrics:  terminalMetrics,
		Store:    store,
		Client:   client,
		Cart:     cart.New(),
		Detector: scan.New(cfg.Scan.InterKeyTolerance, cfg.Scan.MinLength),
	}

	a.Guard, err = session.NewGuard(session.DefaultPolicy(), log, a.clearDraftState)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Gate, err = cashier.NewGate(client, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Catalog, err = catalog.New(client, log, terminalMetrics)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Flow, err = checkout.NewFlow(checkout.Params{
		Cart:      a.Cart,
		Gate:      a.Gate,
		Submitter: client,
		Logger:    log,
		Metrics:   terminalMetrics,
		Notify:    a.onSaleOutcome,
	})
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}

	a.Products, err = products.NewService(client, a.Guard, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Users, err = users.NewService(client, a.Guard, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Stock, err = stock.NewService(client, a.Guard, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Reports, err = reports.NewService(client, a.Guard, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	a.Backup, err = backup.NewService(client, a.Guard, log, a.resetAfterRestore)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}

	a.diag, err = diag.New(cfg.Diagnostics, registry, log)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	return a, nil
}

// Start restores the persisted session, primes the caches when signed in,
// and brings up the diagnostics listener.
func (a *App) Start(ctx context.Context) error {
	a.Guard.Restore(ctx, a.Store.Token(), a.Store.Operator(), time.Now())
	if a.Guard.Snapshot().Authenticated() {
		if err := a.refreshAll(ctx); err != nil {
			// The terminal still starts; the operator sees the failure on
			// the sales screen and can retry or re-login.
			a.log.Warn(ctx, "initial backend fetch failed")
			a.Guard.HandleError(ctx, err)
		}
	}

	if a.diag != nil {
		go func() {
			if err := a.diag.Start(ctx); err != nil {
				a.log.Error(ctx, "diagnostics listener failed", err)
			}
		}()
	}
	return nil
}

func (a *App) refreshAll(ctx context.Context) error {
	if err := a.Catalog.Refresh(ctx); err != nil {
		return err
	}
	_, err := a.Gate.Refresh(ctx)
	return err
}

// Login authenticates the operator and persists the issued credential.
func (a *App) Login(ctx context.Context, username, password string) error {
	result, err := a.Client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.Store.SaveCredential(ctx, result.AccessToken, result.Name, result.Role); err != nil {
		return err
	}
	if err := a.Guard.SignIn(ctx, session.Credentials{
		Token:    result.AccessToken,
		Operator: result.Name,
		Role:     result.Role,
	}); err != nil {
		return err
	}
	return a.refreshAll(ctx)
}

// Logout drops the session; the guard's clear hook wipes the draft state.
func (a *App) Logout(ctx context.Context) {
	a.Guard.SignOut(ctx)
}

// HandleKey feeds one key event through the scan detector and, on a
// completed scan, resolves and adds the product. Weight-sold products are
// not added directly: the returned draft asks for the scale reading first.
func (a *App) HandleKey(ctx context.Context, ev scan.KeyEvent) (*quantity.Draft, error) {
	code, ok := a.Detector.Feed(ev)
	if !ok {
		return nil, nil
	}
	return a.AddScanned(ctx, code)
}

// AddScanned resolves a barcode against the catalog cache. Count-sold
// products go straight into the cart with quantity 1; weight-sold products
// return a quantity draft for the operator to fill.
func (a *App) AddScanned(ctx context.Context, code string) (*quantity.Draft, error) {
	product, err := a.Catalog.ByBarcode(code)
	if err != nil {
		return nil, err
	}
	if product.IsWeighted {
		return quantity.NewDraft(*product), nil
	}
	if err := a.Cart.AddOrIncrement(*product, decimal.NewFromInt(1)); err != nil {
		return nil, err
	}
	return nil, nil
}

// ConfirmQuantity commits a filled quantity draft to the cart.
func (a *App) ConfirmQuantity(draft *quantity.Draft) error {
	qty, err := draft.Confirm()
	if err != nil {
		return err
	}
	return a.Cart.AddOrIncrement(draft.Product(), qty)
}

// onSaleOutcome runs after every finished submission. Success invalidated
// the catalog's stock figures, so it re-fetches them in the background.
func (a *App) onSaleOutcome(outcome checkout.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.RequestTimeout)
	defer cancel()

	if !outcome.Accepted {
		a.Guard.HandleError(ctx, outcome.Err)
		return
	}
	if err := a.Catalog.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "catalog refresh after sale failed")
	}
	if _, err := a.Gate.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "cashier refresh after sale failed")
	}
}

// clearDraftState wipes everything tied to the dropped credential.
func (a *App) clearDraftState() {
	a.Flow.Abandon()
	a.Cart.Clear()
	a.Detector.Reset()
	a.Gate.MarkStale()
	if err := a.Store.ClearCredential(context.Background()); err != nil {
		a.log.Error(context.Background(), "clearing persisted credential", err)
	}
}

// resetAfterRestore forces a clean slate after the backend database was
// replaced: the current credential and every cached snapshot are void.
func (a *App) resetAfterRestore(ctx context.Context) {
	a.Guard.SignOut(ctx)
}

// Close tears the terminal down, aggregating shutdown failures.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.diag != nil {
		err = multierr.Append(err, a.diag.Shutdown(ctx))
	}
	err = multierr.Append(err, a.Store.Close())
	return err
}
