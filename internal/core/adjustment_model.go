package core

import (
	"time"

	"github.com/google/uuid"
)

// StockAdjustment is a physical-count batch. Each item records the stock before and
// after the count; non-zero differences are posted to the ledger as adjustment entries.
type StockAdjustment struct {
	ID             uuid.UUID        `json:"id"`
	StoreID        uuid.UUID        `json:"store_id"`
	AdjustmentDate time.Time        `json:"adjustment_date"`
	Reason         string           `json:"reason"`
	Notes          string           `json:"notes,omitempty"`
	Items          []AdjustmentItem `json:"items"`
	CreatedBy      uuid.UUID        `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
}

type AdjustmentItem struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Difference    int       `json:"difference"`
}

// AdjustmentInput is the caller's side of an adjustment batch.
type AdjustmentInput struct {
	AdjustmentDate time.Time
	Reason         string
	Notes          string
	Items          []AdjustmentLine
}

type AdjustmentLine struct {
	ProductID uuid.UUID
	NewStock  int
}

// TotalDifference sums the signed differences of all items.
func (a StockAdjustment) TotalDifference() int {
	total := 0
	for _, it := range a.Items {
		total += it.Difference
	}
	return total
}
