package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rcoutinho/pdvgo/internal/app"
	"github.com/rcoutinho/pdvgo/internal/quantity"
	"github.com/rcoutinho/pdvgo/internal/scan"
	"github.com/rcoutinho/pdvgo/pkg/config"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/money"
)

// pendingDraft holds the weight-sold product waiting for its quantity.
var pendingDraft *quantity.Draft

func main() {
	logg := logger.New(logger.Options{ServiceName: "pdv"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pdv",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	terminal, err := app.New(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap terminal", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := terminal.Start(ctx); err != nil {
		logg.Error(ctx, "failed to start terminal", err)
		os.Exit(1)
	}
	logg.Info(logg.WithTerminalID(ctx, terminal.Store.TerminalID()), "terminal ready")

	runLoop(ctx, terminal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := terminal.Close(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "shutdown error", err)
		os.Exit(1)
	}
}

// runLoop drives the terminal from stdin lines until EOF or a signal. Each
// line is either a command or raw scanner output ending in the scanner's
// Enter keystroke.
func runLoop(ctx context.Context, terminal *app.App) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := dispatch(ctx, terminal, line); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				fmt.Println(typed.OperatorMessage())
			} else {
				fmt.Println(err)
			}
		}
	}
}

func dispatch(ctx context.Context, terminal *app.App, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "login":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: login <username> <password>")
		}
		if err := terminal.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "logout":
		terminal.Logout(ctx)
		fmt.Println("ok")
		return nil

	case "open":
		if len(args) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: open <initial_balance>")
		}
		balance, err := money.Parse(args[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "initial balance")
		}
		snap, err := terminal.Gate.OpenTill(ctx, balance)
		if err != nil {
			return err
		}
		fmt.Printf("caixa aberto, saldo inicial %s\n", money.Format(snap.InitialBalance))
		return nil

	case "close":
		if len(args) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: close <final_balance>")
		}
		balance, err := money.Parse(args[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "final balance")
		}
		if _, err := terminal.Gate.CloseTill(ctx, balance, true); err != nil {
			return err
		}
		fmt.Println("caixa fechado")
		return nil

	case "status":
		snap, fresh := terminal.Gate.Snapshot()
		if !fresh {
			if _, err := terminal.Gate.Refresh(ctx); err != nil {
				return err
			}
			snap, _ = terminal.Gate.Snapshot()
		}
		if snap.Open() {
			fmt.Printf("caixa aberto: inicial %s, vendido %s, esperado %s\n",
				money.Format(snap.InitialBalance), money.Format(snap.TotalSold), money.Format(snap.ExpectedBalance))
		} else {
			fmt.Println("caixa fechado")
		}
		return nil

	case "scan":
		if len(args) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: scan <barcode>")
		}
		return scanBarcode(ctx, terminal, args[0])

	case "find":
		matches := terminal.Catalog.Search(strings.Join(args, " "))
		for _, p := range matches {
			fmt.Printf("%d  %s  %s\n", p.ID, p.Name, money.Format(p.Price))
		}
		if len(matches) == 0 {
			fmt.Println("nenhum produto encontrado")
		}
		return nil

	case "cart":
		for _, line := range terminal.Cart.Lines() {
			fmt.Printf("%s x%s = %s\n", line.Product.Name, line.Quantity, money.Format(line.Subtotal()))
		}
		fmt.Printf("total: %s\n", money.Format(terminal.Cart.Total()))
		return nil

	case "checkout":
		return runCheckout(ctx, terminal, args)

	case "qty":
		if pendingDraft == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no product waiting for a quantity")
		}
		if len(args) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: qty <quantity>")
		}
		pendingDraft.SetInput(args[0])
		if err := terminal.ConfirmQuantity(pendingDraft); err != nil {
			return err
		}
		pendingDraft = nil
		fmt.Printf("total: %s\n", money.Format(terminal.Cart.Total()))
		return nil

	case "cancel":
		return terminal.Flow.Cancel()

	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown command: "+cmd)
	}
}

// scanBarcode replays the code through the detector the way the scanner
// hardware would: a fast character burst closed by Enter.
func scanBarcode(ctx context.Context, terminal *app.App, code string) error {
	at := time.Now()
	for _, r := range code {
		if _, err := terminal.HandleKey(ctx, scan.Char(r, at)); err != nil {
			return err
		}
		at = at.Add(time.Millisecond)
	}
	draft, err := terminal.HandleKey(ctx, scan.Enter(at))
	if err != nil {
		return err
	}
	if draft != nil {
		fmt.Printf("produto pesado %s: informe a quantidade com 'qty'\n", draft.Product().Name)
		pendingDraft = draft
		return nil
	}
	fmt.Printf("total: %s\n", money.Format(terminal.Cart.Total()))
	return nil
}

func runCheckout(ctx context.Context, terminal *app.App, args []string) error {
	if err := terminal.Flow.Begin(); err != nil {
		return err
	}
	if len(args) >= 1 {
		method, err := enums.ParsePaymentMethod(args[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method")
		}
		if err := terminal.Flow.SelectMethod(method); err != nil {
			return err
		}
	}
	if len(args) >= 2 {
		if err := terminal.Flow.EnterTendered(args[1]); err != nil {
			return err
		}
		fmt.Printf("troco: %s\n", money.Format(terminal.Flow.Change()))
	}
	if err := terminal.Flow.Submit(ctx); err != nil {
		return err
	}
	fmt.Println("venda enviada")
	return nil
}
