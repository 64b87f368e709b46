package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockSummary is the valuation snapshot of a store's catalog.
type StockSummary struct {
	StoreID      uuid.UUID       `json:"store_id"`
	ProductCount int             `json:"product_count"`
	TotalUnits   int             `json:"total_units"`
	CostValue    decimal.Decimal `json:"cost_value"`
	RetailValue  decimal.Decimal `json:"retail_value"`
	LowStock     []Product       `json:"low_stock"`
	CashOnHand   decimal.Decimal `json:"cash_on_hand"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// StockMismatch is a product whose stored stock disagrees with its ledger.
type StockMismatch struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	CurrentStock  int       `json:"current_stock"`
	LedgerBalance int       `json:"ledger_balance"`
}

// ReconciliationReport compares every derived balance with the log it derives from.
type ReconciliationReport struct {
	StoreID         uuid.UUID       `json:"store_id"`
	ProductsChecked int             `json:"products_checked"`
	EntriesChecked  int             `json:"entries_checked"`
	StockMismatches []StockMismatch `json:"stock_mismatches"`
	ChainBreaks     []ChainBreak    `json:"chain_breaks"`
	CashBalance     decimal.Decimal `json:"cash_balance"`
	CashLedgerTotal decimal.Decimal `json:"cash_ledger_total"`
	CashBalanced    bool            `json:"cash_balanced"`
	CheckedAt       time.Time       `json:"checked_at"`
}

func (r ReconciliationReport) OK() bool {
	return len(r.StockMismatches) == 0 && len(r.ChainBreaks) == 0 && r.CashBalanced
}

type ReportingService interface {
	StockSummary(ctx context.Context, storeID uuid.UUID) (*StockSummary, error)
	Reconcile(ctx context.Context, storeID uuid.UUID) (*ReconciliationReport, error)
}

type reportingService struct {
	repo Repository
}

func NewReportingService(repo Repository) ReportingService {
	return &reportingService{repo: repo}
}

func (s *reportingService) StockSummary(ctx context.Context, storeID uuid.UUID) (*StockSummary, error) {
	products, err := s.repo.ListProducts(ctx, storeID, ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	cash, err := s.repo.GetCashBalance(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cash balance: %w", err)
	}

	sum := &StockSummary{
		StoreID:     storeID,
		CostValue:   decimal.Zero,
		RetailValue: decimal.Zero,
		LowStock:    []Product{},
		CashOnHand:  cash.Balance,
		GeneratedAt: now(),
	}
	for _, p := range products {
		units := decimal.NewFromInt(int64(p.CurrentStock))
		sum.ProductCount++
		sum.TotalUnits += p.CurrentStock
		sum.CostValue = sum.CostValue.Add(units.Mul(p.PurchaseCost))
		sum.RetailValue = sum.RetailValue.Add(units.Mul(p.SalePrice))
		if p.IsLowStock() {
			sum.LowStock = append(sum.LowStock, p)
		}
	}
	sum.CostValue = sum.CostValue.Round(2)
	sum.RetailValue = sum.RetailValue.Round(2)
	return sum, nil
}

// Reconcile checks that each product's stock equals its latest ledger balance (zero
// when it has no entries), that every ledger chain is continuous, and that the cash
// balance equals the sum of the cash entries.
func (s *reportingService) Reconcile(ctx context.Context, storeID uuid.UUID) (*ReconciliationReport, error) {
	rep := &ReconciliationReport{
		StoreID:         storeID,
		StockMismatches: []StockMismatch{},
		ChainBreaks:     []ChainBreak{},
		CheckedAt:       now(),
	}

	// Read everything in one transaction so the snapshot is consistent.
	err := s.repo.InTx(ctx, func(q Queries) error {
		products, err := q.ListProducts(ctx, storeID, ProductFilter{IncludeInactive: true})
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		entries, err := q.ListLedgerEntries(ctx, storeID, LedgerFilter{})
		if err != nil {
			return fmt.Errorf("failed to list ledger entries: %w", err)
		}
		rep.ProductsChecked = len(products)
		rep.EntriesChecked = len(entries)

		latest := LatestBalances(entries)
		for _, p := range products {
			if bal := latest[p.ID]; bal != p.CurrentStock {
				rep.StockMismatches = append(rep.StockMismatches, StockMismatch{
					ProductID:     p.ID,
					ProductName:   p.Name,
					CurrentStock:  p.CurrentStock,
					LedgerBalance: bal,
				})
			}
		}
		if breaks := VerifyChain(entries); breaks != nil {
			rep.ChainBreaks = breaks
		}

		cash, err := q.GetCashBalance(ctx, storeID)
		if err != nil {
			return fmt.Errorf("failed to read cash balance: %w", err)
		}
		total, err := q.SumCashEntries(ctx, storeID)
		if err != nil {
			return fmt.Errorf("failed to sum cash entries: %w", err)
		}
		rep.CashBalance = cash.Balance
		rep.CashLedgerTotal = total
		rep.CashBalanced = cash.Balance.Equal(total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}
