package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/seed"
	"digital-ondu/internal/store/postgres"
	"digital-ondu/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../../.env")

	// Integration tests wipe every table, so they only run against TEST_DATABASE_URL.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.Apply(ctx, pool, logging.Discard())
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE sale_installments, sale_items, sales, purchase_items, purchases,
			supplier_payments, suppliers, customers, cash_entries, cash_balances,
			stock_adjustment_items, stock_adjustments, stock_ledger, products,
			document_sequences, users, stores CASCADE`)
	require.NoError(t, err)
	return pool
}

func demoService(t *testing.T, pool *pgxpool.Pool) (app.ApplicationService, *seed.Result) {
	t.Helper()
	svc := app.NewAppService(postgres.NewRepository(pool), nil, logging.Discard())
	demo, err := seed.Demo(context.Background(), svc, "admin", "admin-password")
	require.NoError(t, err)
	require.True(t, demo.Created)
	return svc, demo
}

func productBySKU(t *testing.T, demo *seed.Result, sku string) core.Product {
	t.Helper()
	for _, p := range demo.Products {
		if p.SKU == sku {
			return p
		}
	}
	t.Fatalf("demo product %s missing", sku)
	return core.Product{}
}

func TestPostgres_DocumentsReconcile(t *testing.T) {
	pool := setupTestDB(t)
	svc, demo := demoService(t, pool)
	ctx := context.Background()
	owner, storeID := demo.Owner, demo.Store.ID
	charger := productBySKU(t, demo, "ANK-20W")
	phone := productBySKU(t, demo, "WLT-H9")

	suppliers, err := svc.ListSuppliers(ctx, owner, storeID)
	require.NoError(t, err)
	require.NotEmpty(t, suppliers)

	purchase, err := svc.CreatePurchase(ctx, owner, storeID, app.PurchaseRequest{
		SupplierID:        suppliers[0].ID,
		Items:             []app.PurchaseLineRequest{{ProductID: charger.ID, Quantity: 10, UnitCost: decimal.NewFromInt(1000)}},
		PaidAmount:        decimal.NewFromInt(4000),
		DeductFromBalance: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "6000", purchase.DueAmount.String())

	sale, err := svc.Checkout(ctx, owner, storeID, app.CheckoutRequest{
		Items:      []app.CheckoutLineRequest{{ProductID: phone.ID, Quantity: 1}, {ProductID: charger.ID, Quantity: 2}},
		PaidAmount: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	assert.Equal(t, "14200", sale.Total.String())
	assert.Equal(t, "800", sale.ChangeAmount.String())

	got, err := svc.GetProduct(ctx, owner, storeID, charger.ID)
	require.NoError(t, err)
	assert.Equal(t, 48, got.CurrentStock)

	_, err = svc.CreateAdjustment(ctx, owner, storeID, app.AdjustmentRequest{
		Reason: "cycle count",
		Items:  []app.AdjustmentLineRequest{{ProductID: charger.ID, NewStock: 45}},
	})
	require.NoError(t, err)

	bal, err := svc.CashBalance(ctx, owner, storeID)
	require.NoError(t, err)
	assert.Equal(t, "60200", bal.Balance.String())

	report, err := svc.Reconcile(ctx, owner, storeID)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report)
}

func TestPostgres_ConcurrentStockOutNeverOversells(t *testing.T) {
	pool := setupTestDB(t)
	svc, demo := demoService(t, pool)
	ctx := context.Background()
	card := productBySKU(t, demo, "TRN-32G") // opening stock 3

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, short int
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.StockOut(ctx, demo.Owner, demo.Store.ID, app.StockMovementRequest{ProductID: card.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, core.ErrInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, short)

	got, err := svc.GetProduct(ctx, demo.Owner, demo.Store.ID, card.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentStock)

	report, err := svc.Reconcile(ctx, demo.Owner, demo.Store.ID)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestPostgres_InvoiceSequencePerStore(t *testing.T) {
	pool := setupTestDB(t)
	svc, demo := demoService(t, pool)
	ctx := context.Background()
	cable := productBySKU(t, demo, "BSU-C1M")

	var numbers []string
	for i := 0; i < 3; i++ {
		sale, err := svc.Checkout(ctx, demo.Owner, demo.Store.ID, app.CheckoutRequest{
			Items:      []app.CheckoutLineRequest{{ProductID: cable.ID, Quantity: 1}},
			PaidAmount: decimal.NewFromInt(350),
		})
		require.NoError(t, err)
		numbers = append(numbers, sale.InvoiceNumber)
	}
	assert.Len(t, numbers, 3)
	assert.NotEqual(t, numbers[0], numbers[1])
	assert.Regexp(t, `^OND-\d{4}-00003$`, numbers[2])

	// A failed checkout does not consume a number.
	_, err := svc.Checkout(ctx, demo.Owner, demo.Store.ID, app.CheckoutRequest{
		Items:      []app.CheckoutLineRequest{{ProductID: cable.ID, Quantity: 1000}},
		PaidAmount: decimal.NewFromInt(350000),
	})
	require.ErrorIs(t, err, core.ErrInsufficientStock)
	sale, err := svc.Checkout(ctx, demo.Owner, demo.Store.ID, app.CheckoutRequest{
		Items:      []app.CheckoutLineRequest{{ProductID: cable.ID, Quantity: 1}},
		PaidAmount: decimal.NewFromInt(350),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^OND-\d{4}-00004$`, sale.InvoiceNumber)
}
