package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a received supplier delivery. Stock is posted to the ledger on creation.
type Purchase struct {
	ID                  uuid.UUID       `json:"id"`
	StoreID             uuid.UUID       `json:"store_id"`
	SupplierID          uuid.UUID       `json:"supplier_id"`
	SupplierName        string          `json:"supplier_name"`
	PurchaseDate        time.Time       `json:"purchase_date"`
	Items               []PurchaseItem  `json:"items"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	DueAmount           decimal.Decimal `json:"due_amount"`
	DeductedFromBalance bool            `json:"deducted_from_balance"`
	Notes               string          `json:"notes,omitempty"`
	CreatedBy           uuid.UUID       `json:"created_by"`
	CreatedAt           time.Time       `json:"created_at"`
}

type PurchaseItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseInput is the caller's side of a purchase.
type PurchaseInput struct {
	SupplierID        uuid.UUID
	PurchaseDate      time.Time
	Items             []PurchaseLine
	PaidAmount        decimal.Decimal
	DeductFromBalance bool
	Notes             string
}

type PurchaseLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  decimal.Decimal
}

type PurchaseFilter struct {
	SupplierID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

func (f PurchaseFilter) Match(p Purchase) bool {
	if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
		return false
	}
	if f.From != nil && p.PurchaseDate.Before(*f.From) {
		return false
	}
	if f.To != nil && p.PurchaseDate.After(*f.To) {
		return false
	}
	return true
}

// WeightedAverageCost blends the existing unit cost with a new receipt:
// (oldQty*oldCost + qty*unitCost) / (oldQty + qty).
func WeightedAverageCost(oldQty int, oldCost decimal.Decimal, qty int, unitCost decimal.Decimal) decimal.Decimal {
	if oldQty < 0 {
		oldQty = 0
	}
	newQty := decimal.NewFromInt(int64(oldQty + qty))
	if newQty.IsZero() {
		return unitCost
	}
	return decimal.NewFromInt(int64(oldQty)).Mul(oldCost).
		Add(decimal.NewFromInt(int64(qty)).Mul(unitCost)).
		Div(newQty).Round(4)
}
