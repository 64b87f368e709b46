package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
	"digital-ondu/internal/lock"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/store/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type env struct {
	ctx   context.Context
	svc   app.ApplicationService
	admin core.Actor
	owner core.Actor
	staff core.Actor
	store *core.Store
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	svc := app.NewAppService(memory.New(), lock.NewLocal(), logging.Discard())

	admin, err := svc.EnsureSuperAdmin(ctx, "root", "root-password")
	require.NoError(t, err)
	e := &env{ctx: ctx, svc: svc, admin: admin.Actor()}

	res, err := svc.CreateStore(ctx, e.admin, app.CreateStoreRequest{
		Name:          "Ondu Mobile",
		InvoicePrefix: "OND",
		OwnerUsername: "owner",
		OwnerPassword: "owner-password",
		OpeningCash:   decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	e.store = res.Store
	e.owner = res.Owner.Actor()

	staff, err := svc.CreateUser(ctx, e.owner, e.store.ID, app.CreateUserRequest{Username: "cashier", Password: "cashier-password", Role: "staff"})
	require.NoError(t, err)
	e.staff = staff.Actor()
	return e
}

func (e *env) product(t *testing.T, sku string, stock int) *core.Product {
	t.Helper()
	p, err := e.svc.CreateProduct(e.ctx, e.owner, e.store.ID, app.ProductRequest{
		Name:         "Item " + sku,
		SKU:          sku,
		PurchaseCost: decimal.NewFromInt(80),
		SalePrice:    decimal.NewFromInt(100),
		OpeningStock: stock,
	})
	require.NoError(t, err)
	return p
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	e := setup(t)

	again, err := e.svc.EnsureSuperAdmin(e.ctx, "ROOT", "root-password")
	require.NoError(t, err)
	assert.Equal(t, e.admin.UserID, again.UserID)

	_, err = e.svc.EnsureSuperAdmin(e.ctx, "root", "other-password")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = e.svc.EnsureSuperAdmin(e.ctx, "owner", "owner-password")
	assert.ErrorIs(t, err, core.ErrForbidden, "an owner login cannot be promoted")
}

func TestAuthenticateUser(t *testing.T) {
	e := setup(t)

	session, err := e.svc.AuthenticateUser(e.ctx, app.LoginRequest{Username: "cashier", Password: "cashier-password"})
	require.NoError(t, err)
	assert.Equal(t, core.RoleStaff, session.Role)
	require.NotNil(t, session.StoreID)
	assert.Equal(t, e.store.ID, *session.StoreID)

	_, err = e.svc.AuthenticateUser(e.ctx, app.LoginRequest{Username: "cashier", Password: "nope-nope"})
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = e.svc.AuthenticateUser(e.ctx, app.LoginRequest{})
	var verr *app.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"username": "required", "password": "required"}, verr.Fields)
}

func TestAuthorization(t *testing.T) {
	e := setup(t)
	p := e.product(t, "AUTH-1", 5)
	stranger := core.Actor{UserID: uuid.New(), StoreID: uuid.New(), Role: core.RoleOwner}

	tests := []struct {
		name  string
		actor core.Actor
		call  func(core.Actor) error
		want  error
	}{
		{"staff cannot create products", e.staff, func(a core.Actor) error {
			_, err := e.svc.CreateProduct(e.ctx, a, e.store.ID, app.ProductRequest{Name: "X"})
			return err
		}, core.ErrForbidden},
		{"staff cannot adjust", e.staff, func(a core.Actor) error {
			_, err := e.svc.CreateAdjustment(e.ctx, a, e.store.ID, app.AdjustmentRequest{Reason: "r", Items: []app.AdjustmentLineRequest{{ProductID: p.ID}}})
			return err
		}, core.ErrForbidden},
		{"staff cannot withdraw", e.staff, func(a core.Actor) error {
			_, err := e.svc.Withdraw(e.ctx, a, e.store.ID, app.CashRequest{Amount: decimal.NewFromInt(1)})
			return err
		}, core.ErrForbidden},
		{"staff cannot reconcile", e.staff, func(a core.Actor) error {
			_, err := e.svc.Reconcile(e.ctx, a, e.store.ID)
			return err
		}, core.ErrForbidden},
		{"owner cannot create stores", e.owner, func(a core.Actor) error {
			_, err := e.svc.CreateStore(e.ctx, a, app.CreateStoreRequest{Name: "Other"})
			return err
		}, core.ErrForbidden},
		{"other store's owner cannot read", stranger, func(a core.Actor) error {
			_, err := e.svc.LedgerEntries(e.ctx, a, e.store.ID, app.LedgerQuery{})
			return err
		}, core.ErrForbidden},
		{"staff can stock in", e.staff, func(a core.Actor) error {
			_, err := e.svc.StockIn(e.ctx, a, e.store.ID, app.StockMovementRequest{ProductID: p.ID, Quantity: 1})
			return err
		}, nil},
		{"admin can act on any store", e.admin, func(a core.Actor) error {
			_, err := e.svc.Reconcile(e.ctx, a, e.store.ID)
			return err
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(tt.actor)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListStores_ScopedToActor(t *testing.T) {
	e := setup(t)
	_, err := e.svc.CreateStore(e.ctx, e.admin, app.CreateStoreRequest{Name: "Second", OwnerUsername: "second", OwnerPassword: "second-password"})
	require.NoError(t, err)

	all, err := e.svc.ListStores(e.ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := e.svc.ListStores(e.ctx, e.staff)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, e.store.ID, mine[0].ID)
}

func TestStockMovementBySKU(t *testing.T) {
	e := setup(t)
	p := e.product(t, "SKU-LOOKUP", 10)

	in, err := e.svc.StockIn(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{SKU: "sku-lookup", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, p.ID, in.ProductID)
	assert.Equal(t, 15, in.BalanceAfter)

	_, err = e.svc.StockOut(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{SKU: "SKU-LOOKUP", Quantity: 20})
	assert.ErrorIs(t, err, core.ErrInsufficientStock)

	_, err = e.svc.StockOut(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{SKU: "MISSING", Quantity: 1})
	assert.ErrorIs(t, err, core.ErrProductNotFound)

	_, err = e.svc.StockOut(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{Quantity: 1})
	var verr *app.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Fields["product_id"])

	got, err := e.svc.GetProduct(e.ctx, e.staff, e.store.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.CurrentStock)
}

func TestRecordMovement(t *testing.T) {
	e := setup(t)
	p := e.product(t, "RET-1", 2)

	ret, err := e.svc.RecordMovement(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{ProductID: p.ID, Type: "return_in", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, ret.BalanceAfter)

	for _, typ := range []string{"adjustment", "gift", ""} {
		_, err = e.svc.RecordMovement(e.ctx, e.staff, e.store.ID, app.StockMovementRequest{ProductID: p.ID, Type: typ, Quantity: 1})
		var verr *app.ValidationError
		require.True(t, errors.As(err, &verr), typ)
		assert.Equal(t, "oneof", verr.Fields["type"])
	}
}

func TestAdjustmentAndLedgerQuery(t *testing.T) {
	e := setup(t)
	a := e.product(t, "ADJ-A", 4)
	b := e.product(t, "ADJ-B", 9)

	adj, err := e.svc.CreateAdjustment(e.ctx, e.owner, e.store.ID, app.AdjustmentRequest{
		AdjustmentDate: "2026-03-31",
		Reason:         "Quarter end count",
		Items: []app.AdjustmentLineRequest{
			{ProductID: a.ID, NewStock: 6},
			{ProductID: b.ID, NewStock: 9},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, adj.TotalDifference())
	assert.Equal(t, 31, adj.AdjustmentDate.Day())

	res, err := e.svc.LedgerEntries(e.ctx, e.staff, e.store.ID, app.LedgerQuery{Type: "adjustment"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, a.ID, res.Entries[0].ProductID)

	hist, err := e.svc.ProductLedger(e.ctx, e.staff, e.store.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, hist.Count)

	list, err := e.svc.ListAdjustments(e.ctx, e.staff, e.store.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = e.svc.GetAdjustment(e.ctx, e.staff, e.store.ID, adj.ID)
	require.NoError(t, err)

	_, err = e.svc.CreateAdjustment(e.ctx, e.owner, e.store.ID, app.AdjustmentRequest{Reason: "x"})
	var verr *app.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Fields["items"])

	_, err = e.svc.CreateAdjustment(e.ctx, e.owner, e.store.ID, app.AdjustmentRequest{
		Reason: "x",
		Items:  []app.AdjustmentLineRequest{{ProductID: a.ID, NewStock: -1}},
	})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "min", verr.Fields["items[0].new_stock"])
}

func TestCashFlows(t *testing.T) {
	e := setup(t)

	_, err := e.svc.Deposit(e.ctx, e.owner, e.store.ID, app.CashRequest{Amount: decimal.NewFromInt(250), Notes: "float"})
	require.NoError(t, err)
	_, err = e.svc.Withdraw(e.ctx, e.owner, e.store.ID, app.CashRequest{Amount: decimal.NewFromInt(2000)})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)

	bal, err := e.svc.CashBalance(e.ctx, e.staff, e.store.ID)
	require.NoError(t, err)
	assert.Equal(t, "1250", bal.Balance.String())
	assert.Equal(t, "BDT", bal.Currency)

	stmt, err := e.svc.CashEntries(e.ctx, e.staff, e.store.ID, app.CashQuery{Type: "deposit"})
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 1)
	assert.True(t, stmt.Balance.Equal(bal.Balance))
}

func TestCheckoutAndPurchaseFlow(t *testing.T) {
	e := setup(t)
	p := e.product(t, "FLOW-1", 3)

	sup, err := e.svc.CreateSupplier(e.ctx, e.owner, e.store.ID, app.SupplierRequest{Name: "Wholesaler", Email: "sales@example.com"})
	require.NoError(t, err)
	_, err = e.svc.CreateSupplier(e.ctx, e.owner, e.store.ID, app.SupplierRequest{Name: "Bad", Email: "not-an-email"})
	var verr *app.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Fields["email"])

	pur, err := e.svc.CreatePurchase(e.ctx, e.owner, e.store.ID, app.PurchaseRequest{
		SupplierID:        sup.ID,
		PurchaseDate:      "2026-04-02",
		Items:             []app.PurchaseLineRequest{{ProductID: p.ID, Quantity: 7, UnitCost: decimal.NewFromInt(80)}},
		PaidAmount:        decimal.NewFromInt(560),
		DeductFromBalance: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pur.PurchaseDate.Day())

	cust, err := e.svc.CreateCustomer(e.ctx, e.staff, e.store.ID, app.CustomerRequest{Name: "Rahim", Phone: "017"})
	require.NoError(t, err)
	sale, err := e.svc.Checkout(e.ctx, e.staff, e.store.ID, app.CheckoutRequest{
		CustomerID:   &cust.ID,
		Items:        []app.CheckoutLineRequest{{ProductID: p.ID, Quantity: 4}},
		PaidAmount:   decimal.NewFromInt(100),
		Installments: 3,
		FirstDueDate: "2026-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, "300", sale.DueAmount.String())
	require.Len(t, sale.Installments, 3)
	assert.Equal(t, 5, int(sale.Installments[0].DueDate.Month()))

	sale, err = e.svc.CollectDue(e.ctx, e.staff, e.store.ID, sale.ID, app.CollectDueRequest{Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "200", sale.DueAmount.String())

	sales, err := e.svc.ListSales(e.ctx, e.staff, e.store.ID, app.SaleQuery{CustomerID: cust.ID.String()})
	require.NoError(t, err)
	assert.Len(t, sales, 1)
	purchases, err := e.svc.ListPurchases(e.ctx, e.staff, e.store.ID, app.PurchaseQuery{From: "2026-04-01", To: "2026-04-02"})
	require.NoError(t, err)
	assert.Len(t, purchases, 1)

	// 1000 opening - 560 purchase + 100 sale + 100 collection.
	bal, err := e.svc.CashBalance(e.ctx, e.staff, e.store.ID)
	require.NoError(t, err)
	assert.Equal(t, "640", bal.Balance.String())

	report, err := e.svc.Reconcile(e.ctx, e.owner, e.store.ID)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestExportLedger(t *testing.T) {
	e := setup(t)
	e.product(t, "XLS-1", 4)
	e.product(t, "XLS-2", 2)

	var buf bytes.Buffer
	require.NoError(t, e.svc.ExportLedger(e.ctx, e.staff, e.store.ID, app.LedgerQuery{}, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus one row per entry")

	err = e.svc.ExportLedger(e.ctx, e.staff, e.store.ID, app.LedgerQuery{Type: "bogus"}, &buf)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateProduct_VersionGuard(t *testing.T) {
	e := setup(t)
	p := e.product(t, "VER-1", 1)

	updated, err := e.svc.UpdateProduct(e.ctx, e.owner, e.store.ID, p.ID, app.ProductRequest{Name: "New name", SKU: "VER-1", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)

	_, err = e.svc.UpdateProduct(e.ctx, e.owner, e.store.ID, p.ID, app.ProductRequest{Name: "Again", SKU: "VER-1", Version: p.Version})
	assert.ErrorIs(t, err, core.ErrConcurrentModification)

	require.NoError(t, e.svc.DeactivateProduct(e.ctx, e.owner, e.store.ID, p.ID))
	list, err := e.svc.ListProducts(e.ctx, e.staff, e.store.ID, core.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Products)
}

func TestStockSummaryLowStockCount(t *testing.T) {
	e := setup(t)
	e.product(t, "LOW-1", 1)
	e.product(t, "OK-1", 50)

	list, err := e.svc.ListProducts(e.ctx, e.staff, e.store.ID, core.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.LowStockCount)

	sum, err := e.svc.StockSummary(e.ctx, e.staff, e.store.ID)
	require.NoError(t, err)
	assert.Equal(t, 51, sum.TotalUnits)
}
