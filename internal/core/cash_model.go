package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashEntryType classifies a movement of cash on hand.
type CashEntryType string

const (
	CashOpening         CashEntryType = "opening"
	CashSalePayment     CashEntryType = "sale_payment"
	CashDueCollection   CashEntryType = "due_collection"
	CashPurchasePayment CashEntryType = "purchase_payment"
	CashSupplierPayment CashEntryType = "supplier_payment"
	CashDeposit         CashEntryType = "deposit"
	CashWithdrawal      CashEntryType = "withdrawal"
)

// Inflow reports whether entries of this type add to the balance.
func (t CashEntryType) Inflow() bool {
	switch t {
	case CashOpening, CashSalePayment, CashDueCollection, CashDeposit:
		return true
	}
	return false
}

func (t CashEntryType) Valid() bool {
	switch t {
	case CashOpening, CashSalePayment, CashDueCollection, CashPurchasePayment,
		CashSupplierPayment, CashDeposit, CashWithdrawal:
		return true
	}
	return false
}

// CashBalance is the running cash-on-hand total of a store.
type CashBalance struct {
	StoreID   uuid.UUID       `json:"store_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CashEntry is one immutable row of the cash book. Amount is signed.
type CashEntry struct {
	ID            uuid.UUID       `json:"id"`
	Seq           int64           `json:"seq"`
	StoreID       uuid.UUID       `json:"store_id"`
	EntryType     CashEntryType   `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CashMovement is a request to add or deduct cash.
type CashMovement struct {
	Type          CashEntryType
	Amount        decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	Notes         string
}

type CashFilter struct {
	Type  CashEntryType
	From  *time.Time
	To    *time.Time
	Limit int
}

func (f CashFilter) Match(e CashEntry) bool {
	if f.Type != "" && f.Type != "all" && e.EntryType != f.Type {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	return true
}
