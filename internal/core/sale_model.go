package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentMobile
}

// Sale is a completed POS checkout.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	StoreID       uuid.UUID       `json:"store_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Items         []SaleItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Installments  []Installment   `json:"installments,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SaleItem struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SerialNumber      string          `json:"serial_number,omitempty"`
	WarrantyExpiresAt *time.Time      `json:"warranty_expires_at,omitempty"`
}

// Installment is one scheduled repayment of a sale's due amount.
type Installment struct {
	Seq        int             `json:"seq"`
	DueDate    time.Time       `json:"due_date"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

func (i Installment) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// CheckoutInput is the caller's side of a POS checkout.
type CheckoutInput struct {
	CustomerID      *uuid.UUID
	Items           []CheckoutLine
	Discount        decimal.Decimal
	DiscountPercent decimal.Decimal
	PaidAmount      decimal.Decimal
	PaymentMethod   PaymentMethod
	Installments    int
	FirstDueDate    *time.Time
}

type CheckoutLine struct {
	ProductID    uuid.UUID
	Quantity     int
	UnitPrice    *decimal.Decimal // nil means the product's sale price
	SerialNumber string
}

type SaleFilter struct {
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
}

func (f SaleFilter) Match(s Sale) bool {
	if f.CustomerID != nil && (s.CustomerID == nil || *s.CustomerID != *f.CustomerID) {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && s.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// WarrantyInfo is the answer to a serial-number warranty lookup.
type WarrantyInfo struct {
	SerialNumber  string     `json:"serial_number"`
	InvoiceNumber string     `json:"invoice_number"`
	SaleID        uuid.UUID  `json:"sale_id"`
	ProductID     uuid.UUID  `json:"product_id"`
	ProductName   string     `json:"product_name"`
	SoldAt        time.Time  `json:"sold_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Active        bool       `json:"active"`
}
