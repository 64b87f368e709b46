package app

import (
	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserSession is returned by AuthenticateUser and GetUser.
type UserSession struct {
	UserID   uuid.UUID  `json:"user_id"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
	Username string     `json:"username"`
	Role     core.Role  `json:"role"`
}

// Actor is the identity a session acts as.
func (s UserSession) Actor() core.Actor {
	a := core.Actor{UserID: s.UserID, Role: s.Role}
	if s.StoreID != nil {
		a.StoreID = *s.StoreID
	}
	return a
}

// StoreResult is returned by CreateStore.
type StoreResult struct {
	Store *core.Store  `json:"store"`
	Owner *UserSession `json:"owner"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products      []core.Product `json:"products"`
	LowStockCount int            `json:"low_stock_count"`
}

// LedgerResult is returned by ledger reads, newest entry first.
type LedgerResult struct {
	Entries []core.LedgerEntry `json:"entries"`
	Count   int                `json:"count"`
}

type CashBalanceResult struct {
	StoreID  uuid.UUID       `json:"store_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// CashStatementResult is the cash book statement with the current balance.
type CashStatementResult struct {
	Balance decimal.Decimal  `json:"balance"`
	Entries []core.CashEntry `json:"entries"`
}

func sessionOf(u *core.User) *UserSession {
	return &UserSession{UserID: u.ID, StoreID: u.StoreID, Username: u.Username, Role: u.Role}
}
