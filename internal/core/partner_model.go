package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier is a vendor the store buys from. DueAmount is what the store owes.
type Supplier struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	DueAmount decimal.Decimal `json:"due_amount"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// SupplierPayment records a settlement of supplier dues.
type SupplierPayment struct {
	ID                  uuid.UUID       `json:"id"`
	StoreID             uuid.UUID       `json:"store_id"`
	SupplierID          uuid.UUID       `json:"supplier_id"`
	Amount              decimal.Decimal `json:"amount"`
	DeductedFromBalance bool            `json:"deducted_from_balance"`
	Notes               string          `json:"notes,omitempty"`
	CreatedBy           uuid.UUID       `json:"created_by"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Customer buys from the store. DueAmount is what the customer owes the store.
type Customer struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	DueAmount decimal.Decimal `json:"due_amount"`
	CreatedAt time.Time       `json:"created_at"`
}
