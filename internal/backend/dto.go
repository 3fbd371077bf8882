package backend

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcoutinho/pdvgo/pkg/enums"
)

// Product is the backend's catalog record. Stock for weight-sold products is
// fractional (kilograms); count-sold stock is always integral.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Barcode       *string         `json:"barcode"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	Category      *string         `json:"category"`
	IsActive      bool            `json:"is_active"`
	IsWeighted    bool            `json:"is_weighted"`
}

// LoginResult is the credential issued by POST /token.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	Name        string     `json:"name"`
	Role        enums.Role `json:"role"`
}

// SaleItemInput carries product id and quantity only; unit prices are
// resolved server-side at sale time and never trusted from the client.
type SaleItemInput struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateSaleInput is the payload of POST /sales/.
type CreateSaleInput struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Items         []SaleItemInput     `json:"items"`
}

// SaleItem is one settled line of a recorded sale.
type SaleItem struct {
	Product struct {
		Name string `json:"name"`
	} `json:"product"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleSeller identifies the operator who registered a sale.
type SaleSeller struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
}

// Sale is a recorded sale as returned by the reports endpoints.
type Sale struct {
	ID            int64               `json:"id"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Timestamp     time.Time           `json:"timestamp"`
	Items         []SaleItem          `json:"items"`
	Seller        SaleSeller          `json:"seller"`
}

// CashierSnapshot mirrors GET /cashier/status. Balances are present only
// while the session is open; all three are server-computed.
type CashierSnapshot struct {
	Status          enums.CashierStatus `json:"status"`
	InitialBalance  *decimal.Decimal    `json:"initial_balance"`
	TotalSold       *decimal.Decimal    `json:"total_sold"`
	ExpectedBalance *decimal.Decimal    `json:"expected_balance"`
}

// CashierSession is one historical till session.
type CashierSession struct {
	ID             int64               `json:"id"`
	TerminalID     string              `json:"terminal_id"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        *time.Time          `json:"end_time"`
	InitialBalance decimal.Decimal     `json:"initial_balance"`
	FinalBalance   *decimal.Decimal    `json:"final_balance"`
	Status         enums.CashierStatus `json:"status"`
}

// StockMovement is one inventory change row from GET /stock/history.
type StockMovement struct {
	ID             int64              `json:"id"`
	ProductName    string             `json:"product_name"`
	QuantityChange decimal.Decimal    `json:"quantity_change"`
	MovementType   enums.MovementType `json:"movement_type"`
	Description    string             `json:"description"`
	Timestamp      time.Time          `json:"timestamp"`
}

// User is an operator account.
type User struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

// BackupStats summarizes the backend database for the backup screen.
type BackupStats struct {
	Products       int64   `json:"products"`
	Users          int64   `json:"users"`
	Sales          int64   `json:"sales"`
	StockMovements int64   `json:"stock_movements"`
	LastBackup     *string `json:"last_backup"`
}

// BackupFile is one server-side backup archive.
type BackupFile struct {
	Filename  string  `json:"filename"`
	SizeKB    float64 `json:"size_kb"`
	CreatedAt string  `json:"created_at"`
}
