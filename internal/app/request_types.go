package app

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request types double as JSON bodies for the web adapter. Dates are strings in
// YYYY-MM-DD or RFC 3339 form and are parsed here, not by the adapters.

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=owner staff"`
}

// CreateStoreRequest is the input for provisioning a new store.
type CreateStoreRequest struct {
	Name              string          `json:"name" validate:"required,max=120"`
	Currency          string          `json:"currency" validate:"omitempty,len=3"`
	InvoicePrefix     string          `json:"invoice_prefix" validate:"omitempty,alphanum,max=8"`
	StockOutPolicy    string          `json:"stock_out_policy" validate:"omitempty,oneof=reject clamp"`
	AllowNegativeCash bool            `json:"allow_negative_cash"`
	LowStockDefault   *int            `json:"low_stock_default" validate:"omitempty,min=0"`
	OwnerUsername     string          `json:"owner_username" validate:"required,min=3,max=64"`
	OwnerPassword     string          `json:"owner_password" validate:"required,min=8"`
	OpeningCash       decimal.Decimal `json:"opening_cash" validate:"cents"`
}

type UpdateSettingsRequest struct {
	StockOutPolicy    string `json:"stock_out_policy" validate:"required,oneof=reject clamp"`
	AllowNegativeCash bool   `json:"allow_negative_cash"`
	LowStockDefault   int    `json:"low_stock_default" validate:"min=0"`
}

// ProductRequest creates or updates a product. OpeningStock is only honoured on
// create; Version, when set, guards an update against concurrent edits.
type ProductRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	SKU               string          `json:"sku" validate:"max=64"`
	Category          string          `json:"category" validate:"max=100"`
	Brand             string          `json:"brand" validate:"max=100"`
	Unit              string          `json:"unit" validate:"max=20"`
	PurchaseCost      decimal.Decimal `json:"purchase_cost"`
	SalePrice         decimal.Decimal `json:"sale_price" validate:"cents"`
	LowStockThreshold *int            `json:"low_stock_threshold" validate:"omitempty,min=0"`
	WarrantyMonths    int             `json:"warranty_months" validate:"min=0,max=240"`
	OpeningStock      int             `json:"opening_stock" validate:"min=0,max=1000000"`
	Version           int             `json:"version" validate:"min=0"`
}

// StockMovementRequest moves stock of one product. The product is named by id or,
// for terminal use, by SKU.
type StockMovementRequest struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity" validate:"max=1000000"`
	BatchNumber  string    `json:"batch_number" validate:"max=64"`
	SerialNumber string    `json:"serial_number" validate:"max=100"`
	Notes        string    `json:"notes" validate:"max=500"`
}

type AdjustmentRequest struct {
	AdjustmentDate string                  `json:"adjustment_date"`
	Reason         string                  `json:"reason" validate:"required,max=200"`
	Notes          string                  `json:"notes" validate:"max=500"`
	Items          []AdjustmentLineRequest `json:"items" validate:"required,min=1,dive"`
}

type AdjustmentLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	NewStock  int       `json:"new_stock" validate:"min=0,max=1000000"`
}

type CashRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"cents"`
	Notes  string          `json:"notes" validate:"max=500"`
}

type SupplierRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=500"`
}

type SupplierPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount" validate:"cents"`
	DeductFromBalance bool            `json:"deduct_from_balance"`
	Notes             string          `json:"notes" validate:"max=500"`
}

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
}

type PurchaseRequest struct {
	SupplierID        uuid.UUID             `json:"supplier_id" validate:"required"`
	PurchaseDate      string                `json:"purchase_date"`
	Items             []PurchaseLineRequest `json:"items" validate:"required,min=1,dive"`
	PaidAmount        decimal.Decimal       `json:"paid_amount" validate:"cents"`
	DeductFromBalance bool                  `json:"deduct_from_balance"`
	Notes             string                `json:"notes" validate:"max=500"`
}

type PurchaseLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"max=1000000"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CheckoutRequest is a POS basket. Either Discount or DiscountPercent may be set.
type CheckoutRequest struct {
	CustomerID      *uuid.UUID            `json:"customer_id"`
	Items           []CheckoutLineRequest `json:"items" validate:"required,min=1,dive"`
	Discount        decimal.Decimal       `json:"discount" validate:"cents"`
	DiscountPercent decimal.Decimal       `json:"discount_percent"`
	PaidAmount      decimal.Decimal       `json:"paid_amount" validate:"cents"`
	PaymentMethod   string                `json:"payment_method" validate:"omitempty,oneof=cash card mobile"`
	Installments    int                   `json:"installments" validate:"min=0,max=24"`
	FirstDueDate    string                `json:"first_due_date"`
}

type CheckoutLineRequest struct {
	ProductID    uuid.UUID        `json:"product_id" validate:"required"`
	Quantity     int              `json:"quantity" validate:"max=1000000"`
	UnitPrice    *decimal.Decimal `json:"unit_price" validate:"omitempty,cents"`
	SerialNumber string           `json:"serial_number" validate:"max=100"`
}

type CollectDueRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"cents"`
	Notes  string          `json:"notes" validate:"max=500"`
}

// ── Queries ──

// LedgerQuery is the raw ledger filter as received from a query string.
type LedgerQuery struct {
	Search    string
	Type      string
	ProductID string
	From      string
	To        string
	Limit     int
}

type CashQuery struct {
	Type  string
	From  string
	To    string
	Limit int
}

type SaleQuery struct {
	CustomerID string
	From       string
	To         string
	Limit      int
}

type PurchaseQuery struct {
	SupplierID string
	From       string
	To         string
}
