package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a stock ledger entry.
type TransactionType string

const (
	TxStockIn    TransactionType = "stock_in"
	TxStockOut   TransactionType = "stock_out"
	TxAdjustment TransactionType = "adjustment"
	TxSale       TransactionType = "sale"
	TxPurchase   TransactionType = "purchase"
	TxReturnIn   TransactionType = "return_in"
	TxReturnOut  TransactionType = "return_out"
	TxDamage     TransactionType = "damage"
	TxLoss       TransactionType = "loss"
)

// TransactionTypes lists every type in display order.
var TransactionTypes = []TransactionType{
	TxStockIn, TxStockOut, TxAdjustment, TxSale, TxPurchase,
	TxReturnIn, TxReturnOut, TxDamage, TxLoss,
}

// Direction returns +1 for types that add stock, -1 for types that remove it
// and 0 for adjustment, whose sign comes from the counted difference.
func (t TransactionType) Direction() int {
	switch t {
	case TxStockIn, TxPurchase, TxReturnIn:
		return 1
	case TxStockOut, TxSale, TxReturnOut, TxDamage, TxLoss:
		return -1
	}
	return 0
}

func (t TransactionType) Valid() bool {
	for _, v := range TransactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Reference types recorded on ledger entries.
const (
	RefSale       = "sale"
	RefPurchase   = "purchase"
	RefAdjustment = "adjustment"
	RefOpening    = "opening"
)

// LedgerEntry is one immutable row of the stock ledger.
// Quantity is signed; BalanceAfter is the product's stock once the entry is applied.
type LedgerEntry struct {
	ID              uuid.UUID       `json:"id"`
	Seq             int64           `json:"seq"`
	StoreID         uuid.UUID       `json:"store_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        int             `json:"quantity"`
	BalanceAfter    int             `json:"balance_after"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	SerialNumber    string          `json:"serial_number,omitempty"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LedgerFilter selects ledger entries. All set criteria must hold.
type LedgerFilter struct {
	// Search is matched case-insensitively against product name and notes.
	Search string
	// Type is an exact transaction type; "" or "all" matches every type.
	Type      TransactionType
	ProductID *uuid.UUID
	// From and To bound CreatedAt inclusively. Nil means unbounded.
	From  *time.Time
	To    *time.Time
	Limit int
}

// MatchesAllTypes reports whether the filter leaves the transaction type open.
func (f LedgerFilter) MatchesAllTypes() bool {
	return f.Type == "" || f.Type == "all"
}

// Match reports whether e satisfies every criterion of the filter.
func (f LedgerFilter) Match(e LedgerEntry) bool {
	if !f.MatchesAllTypes() && e.TransactionType != f.Type {
		return false
	}
	if f.ProductID != nil && e.ProductID != *f.ProductID {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(e.ProductName), q) &&
			!strings.Contains(strings.ToLower(e.Notes), q) {
			return false
		}
	}
	return true
}

// Movement is a request to move stock of a single product.
type Movement struct {
	ProductID     uuid.UUID
	Type          TransactionType
	Quantity      int
	BatchNumber   string
	SerialNumber  string
	ReferenceType string
	ReferenceID   *uuid.UUID
	Notes         string
	// UnitCost, when set on an inbound movement, folds the receipt into the
	// product's weighted-average purchase cost.
	UnitCost *decimal.Decimal
}
