package core_test

import (
	"testing"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateWithOpeningStock(t *testing.T) {
	f := newFixture(t, nil, "")
	p, err := f.products.CreateProduct(f.ctx, f.owner, f.store.ID, core.ProductInput{
		Name:      "  Power Bank 10000mAh ",
		SKU:       " pwb-10k ",
		SalePrice: dec("1800"),
	}, 12)
	require.NoError(t, err)
	assert.Equal(t, "Power Bank 10000mAh", p.Name)
	assert.Equal(t, "PWB-10K", p.SKU)
	assert.Equal(t, "pcs", p.Unit)
	assert.Equal(t, 12, p.CurrentStock)
	assert.Equal(t, f.store.Settings.LowStockDefault, p.LowStockThreshold)

	history, err := f.ledger.ProductHistory(f.ctx, f.store.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.TxStockIn, history[0].TransactionType)
	assert.Equal(t, core.RefOpening, history[0].ReferenceType)
	assert.Equal(t, 12, history[0].BalanceAfter)

	bySKU, err := f.products.GetProductBySKU(f.ctx, f.store.ID, "pwb-10k")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	zero := f.product(t, "ZERO-1", 0)
	history, err = f.ledger.ProductHistory(f.ctx, f.store.ID, zero.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProductService_Validation(t *testing.T) {
	f := newFixture(t, nil, "")
	f.product(t, "DUP-1", 0)
	negative := -1

	tests := []struct {
		name    string
		in      core.ProductInput
		opening int
		want    error
	}{
		{"missing name", core.ProductInput{SKU: "X"}, 0, core.ErrInvalidInput},
		{"negative price", core.ProductInput{Name: "X", SalePrice: dec("-1")}, 0, core.ErrInvalidInput},
		{"negative threshold", core.ProductInput{Name: "X", LowStockThreshold: &negative}, 0, core.ErrInvalidInput},
		{"negative opening stock", core.ProductInput{Name: "X"}, -3, core.ErrInvalidInput},
		{"duplicate sku", core.ProductInput{Name: "X", SKU: "dup-1"}, 0, core.ErrDuplicateSKU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.CreateProduct(f.ctx, f.owner, f.store.ID, tt.in, tt.opening)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProductService_UpdateKeepsStock(t *testing.T) {
	f := newFixture(t, nil, "")
	p := f.product(t, "UPD-1", 7)

	updated, err := f.products.UpdateProduct(f.ctx, f.store.ID, p.ID, core.ProductInput{
		Name:      "Renamed",
		SKU:       "UPD-1",
		SalePrice: dec("199"),
	}, p.Version)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 7, updated.CurrentStock, "metadata updates never touch stock")

	_, err = f.products.UpdateProduct(f.ctx, f.store.ID, p.ID, core.ProductInput{Name: "Stale", SKU: "UPD-1"}, p.Version)
	assert.ErrorIs(t, err, core.ErrConcurrentModification)

	_, err = f.products.UpdateProduct(f.ctx, f.store.ID, uuid.New(), core.ProductInput{Name: "Ghost"}, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)
	f.requireReconciled(t)
}

func TestProductService_ListFilters(t *testing.T) {
	f := newFixture(t, nil, "")
	low := f.product(t, "LST-LOW", 2)
	f.product(t, "LST-OK", 40)
	gone := f.product(t, "LST-GONE", 10)
	require.NoError(t, f.products.DeactivateProduct(f.ctx, f.store.ID, gone.ID))
	require.NoError(t, f.products.DeactivateProduct(f.ctx, f.store.ID, gone.ID), "deactivating twice is a no-op")

	active, err := f.products.ListProducts(f.ctx, f.store.ID, core.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := f.products.ListProducts(f.ctx, f.store.ID, core.ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lows, err := f.products.ListProducts(f.ctx, f.store.ID, core.ProductFilter{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)

	found, err := f.products.ListProducts(f.ctx, f.store.ID, core.ProductFilter{Search: "lst-ok"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	cat, err := f.products.ListProducts(f.ctx, f.store.ID, core.ProductFilter{Category: "accessories"})
	require.NoError(t, err)
	assert.Len(t, cat, 2)
}

func TestUserService(t *testing.T) {
	f := newFixture(t, nil, "")
	users := core.NewUserService(f.repo)

	u, err := users.CreateUser(f.ctx, &f.store.ID, " Cashier1 ", "cashier-pass", core.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, "cashier1", u.Username)
	assert.NotEqual(t, "cashier-pass", u.PasswordHash)

	got, err := users.Authenticate(f.ctx, "CASHIER1", "cashier-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Authenticate(f.ctx, "cashier1", "wrong-pass")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = users.Authenticate(f.ctx, "nobody", "whatever-pass")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = users.CreateUser(f.ctx, &f.store.ID, "cashier1", "cashier-pass", core.RoleStaff)
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)
	_, err = users.CreateUser(f.ctx, &f.store.ID, "short", "abc", core.RoleStaff)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = users.CreateUser(f.ctx, nil, "floating", "long-enough", core.RoleStaff)
	assert.ErrorIs(t, err, core.ErrInvalidInput, "store users need a store")
	_, err = users.CreateUser(f.ctx, &f.store.ID, "boss", "long-enough", core.Role("king"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestActorCanAccess(t *testing.T) {
	store, other := uuid.New(), uuid.New()
	admin := core.Actor{Role: core.RoleSuperAdmin}
	owner := core.Actor{StoreID: store, Role: core.RoleOwner}
	staff := core.Actor{StoreID: store, Role: core.RoleStaff}

	assert.True(t, admin.CanAccess(other, core.RoleSuperAdmin))
	assert.True(t, owner.CanAccess(store, core.RoleStaff))
	assert.True(t, owner.CanAccess(store, core.RoleOwner))
	assert.False(t, owner.CanAccess(other, core.RoleStaff))
	assert.False(t, owner.CanAccess(store, core.RoleSuperAdmin))
	assert.True(t, staff.CanAccess(store, core.RoleStaff))
	assert.False(t, staff.CanAccess(store, core.RoleOwner))
	assert.False(t, core.Actor{StoreID: store}.CanAccess(store, core.RoleStaff), "missing role grants nothing")
}

func TestStoreService_Settings(t *testing.T) {
	f := newFixture(t, nil, "")
	assert.Equal(t, core.StockOutReject, f.store.Settings.StockOutPolicy)
	assert.Equal(t, "BDT", f.store.Currency)

	updated, err := f.stores.UpdateSettings(f.ctx, f.store.ID, core.StoreSettings{StockOutPolicy: core.StockOutClamp, LowStockDefault: 3})
	require.NoError(t, err)
	assert.Equal(t, core.StockOutClamp, updated.Settings.StockOutPolicy)

	// The ledger picks up the new policy on the next movement.
	p := f.product(t, "POL-1", 1)
	e, err := f.ledger.StockOut(f.ctx, f.owner, f.store.ID, core.Movement{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, -1, e.Quantity)

	_, err = f.stores.UpdateSettings(f.ctx, f.store.ID, core.StoreSettings{StockOutPolicy: "backorder"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	stores, err := f.stores.ListStores(f.ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 1)
}
