package core

import (
	"time"

	"github.com/google/uuid"
)

// StockOutPolicy decides what happens when a stock-out asks for more than is on hand.
type StockOutPolicy string

const (
	// StockOutReject refuses the movement and leaves stock unchanged.
	StockOutReject StockOutPolicy = "reject"
	// StockOutClamp takes the stock to zero and records the quantity actually removed.
	StockOutClamp StockOutPolicy = "clamp"
)

func (p StockOutPolicy) Valid() bool {
	return p == StockOutReject || p == StockOutClamp
}

// StoreSettings holds the per-tenant policies consulted by the stock ledger and cash book.
type StoreSettings struct {
	StockOutPolicy    StockOutPolicy `json:"stock_out_policy"`
	AllowNegativeCash bool           `json:"allow_negative_cash"`
	LowStockDefault   int            `json:"low_stock_default"`
}

// DefaultStoreSettings is applied to stores created without explicit settings.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		StockOutPolicy:  StockOutReject,
		LowStockDefault: 5,
	}
}

// Store is one tenant (shop) of the system. Every other record is scoped to a store.
type Store struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Currency      string        `json:"currency"`
	InvoicePrefix string        `json:"invoice_prefix"`
	Settings      StoreSettings `json:"settings"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleOwner      Role = "owner"
	RoleStaff      Role = "staff"
)

// rank orders roles so that a higher role satisfies any lower requirement.
func (r Role) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleOwner:
		return 2
	case RoleStaff:
		return 1
	}
	return 0
}

// Satisfies reports whether r grants at least the permissions of min.
func (r Role) Satisfies(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

func (r Role) Valid() bool { return r.rank() > 0 }

// User is a login account. StoreID is nil for super admins.
type User struct {
	ID           uuid.UUID  `json:"id"`
	StoreID      *uuid.UUID `json:"store_id,omitempty"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Actor identifies who performs an operation. It is stamped on every ledger row.
type Actor struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    Role
}

// CanAccess reports whether the actor may act on storeID with at least role min.
func (a Actor) CanAccess(storeID uuid.UUID, min Role) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.StoreID == storeID && a.Role.Satisfies(min)
}
