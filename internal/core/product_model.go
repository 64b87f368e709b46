package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. CurrentStock is owned by the stock ledger:
// it is only ever written together with a ledger entry whose BalanceAfter it equals.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"store_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Category          string          `json:"category"`
	Brand             string          `json:"brand"`
	Unit              string          `json:"unit"`
	PurchaseCost      decimal.Decimal `json:"purchase_cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	CurrentStock      int             `json:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	WarrantyMonths    int             `json:"warranty_months"`
	IsActive          bool            `json:"is_active"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the product is at or below its reorder threshold.
func (p Product) IsLowStock() bool {
	return p.CurrentStock <= p.LowStockThreshold
}

// ProductFilter narrows a catalog listing. Zero values mean "no restriction".
type ProductFilter struct {
	Search          string
	Category        string
	LowStockOnly    bool
	IncludeInactive bool
}

// Match applies the filter to a single product. Search is a case-insensitive
// substring match on name, SKU and brand.
func (f ProductFilter) Match(p Product) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.LowStockOnly && !p.IsLowStock() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q) &&
			!strings.Contains(strings.ToLower(p.Brand), q) {
			return false
		}
	}
	return true
}
