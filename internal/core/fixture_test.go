package core_test

import (
	"context"
	"testing"

	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/store/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture is one store on a fresh in-memory repository with every service wired.
type fixture struct {
	ctx       context.Context
	repo      *memory.Store
	ledger    core.StockLedger
	cash      core.CashBook
	stores    core.StoreService
	products  core.ProductService
	partners  core.PartnerService
	purchases core.PurchaseService
	sales     core.SaleService
	reports   core.ReportingService

	store *core.Store
	owner core.Actor
}

func newFixture(t *testing.T, settings *core.StoreSettings, openingCash string) *fixture {
	t.Helper()
	log := logging.Discard()
	repo := memory.New()
	policies := core.NewPolicyEngine()
	ledger := core.NewStockLedger(repo, policies, log)
	cash := core.NewCashBook(repo, policies, log)

	f := &fixture{
		ctx:       context.Background(),
		repo:      repo,
		ledger:    ledger,
		cash:      cash,
		stores:    core.NewStoreService(repo, cash),
		products:  core.NewProductService(repo, ledger),
		partners:  core.NewPartnerService(repo),
		purchases: core.NewPurchaseService(repo, ledger, cash, log),
		sales:     core.NewSaleService(repo, ledger, cash, log),
		reports:   core.NewReportingService(repo),
	}

	admin := core.Actor{UserID: uuid.New(), Role: core.RoleSuperAdmin}
	store, owner, err := f.stores.CreateStore(f.ctx, admin, core.StoreInput{
		Name:          "Test Shop",
		InvoicePrefix: "TST",
		Settings:      settings,
		OwnerUsername: "owner-" + uuid.NewString()[:8],
		OwnerPassword: "owner-password",
		OpeningCash:   dec(openingCash),
	})
	require.NoError(t, err)
	f.store = store
	f.owner = core.Actor{UserID: owner.ID, StoreID: store.ID, Role: owner.Role}
	return f
}

func (f *fixture) product(t *testing.T, sku string, stock int) *core.Product {
	t.Helper()
	p, err := f.products.CreateProduct(f.ctx, f.owner, f.store.ID, core.ProductInput{
		Name:         "Product " + sku,
		SKU:          sku,
		Category:     "Accessories",
		PurchaseCost: dec("100"),
		SalePrice:    dec("150"),
	}, stock)
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.GetProduct(f.ctx, f.store.ID, id)
	require.NoError(t, err)
	return p.CurrentStock
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.cash.Balance(f.ctx, f.store.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) requireReconciled(t *testing.T) {
	t.Helper()
	report, err := f.reports.Reconcile(f.ctx, f.store.ID)
	require.NoError(t, err)
	require.Empty(t, report.StockMismatches)
	require.Empty(t, report.ChainBreaks)
	require.True(t, report.CashBalanced, "cash %s, cash book %s", report.CashBalance, report.CashLedgerTotal)
}

func dec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}

func clampSettings() *core.StoreSettings {
	s := core.DefaultStoreSettings()
	s.StockOutPolicy = core.StockOutClamp
	return &s
}
