package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"digital-ondu/internal/core"
	"digital-ondu/internal/store/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, s *memory.Store) (core.Store, core.Product) {
	t.Helper()
	ctx := context.Background()
	store := core.Store{ID: uuid.New(), Name: "Shop", Currency: "BDT", Settings: core.DefaultStoreSettings(), CreatedAt: time.Now()}
	product := core.Product{ID: uuid.New(), StoreID: store.ID, Name: "Cable", SKU: "CBL", CurrentStock: 3, IsActive: true}
	require.NoError(t, s.InTx(ctx, func(q core.Queries) error {
		if err := q.InsertStore(ctx, &store); err != nil {
			return err
		}
		return q.InsertProduct(ctx, &product)
	}))
	return store, product
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	store, product := seedStore(t, s)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(q core.Queries) error {
		p, err := q.GetProductForUpdate(ctx, store.ID, product.ID)
		require.NoError(t, err)
		p.CurrentStock = 99
		require.NoError(t, q.UpdateProduct(ctx, p))
		require.NoError(t, q.InsertLedgerEntry(ctx, &core.LedgerEntry{ID: uuid.New(), StoreID: store.ID, ProductID: p.ID, Quantity: 96, BalanceAfter: 99}))
		_, err = q.NextSequence(ctx, store.ID, core.DocInvoice, 2026)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.GetProduct(ctx, store.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)

	entries, err := s.ListLedgerEntries(ctx, store.ID, core.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The rolled back sequence draw leaves no gap.
	require.NoError(t, s.InTx(ctx, func(q core.Queries) error {
		n, err := q.NextSequence(ctx, store.ID, core.DocInvoice, 2026)
		assert.Equal(t, int64(1), n)
		return err
	}))
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	store, product := seedStore(t, s)

	assert.Panics(t, func() {
		_ = s.InTx(ctx, func(q core.Queries) error {
			p, _ := q.GetProductForUpdate(ctx, store.ID, product.ID)
			p.CurrentStock = 0
			_ = q.UpdateProduct(ctx, p)
			panic("kaboom")
		})
	})

	p, err := s.GetProduct(ctx, store.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)
}

func TestInTx_CancelledContext(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.InTx(ctx, func(core.Queries) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestUpdateProduct_Version(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	store, product := seedStore(t, s)

	stale, err := s.GetProduct(ctx, store.ID, product.ID)
	require.NoError(t, err)
	fresh := *stale
	require.NoError(t, s.UpdateProduct(ctx, &fresh))
	assert.Equal(t, stale.Version+1, fresh.Version)

	err = s.UpdateProduct(ctx, stale)
	assert.ErrorIs(t, err, core.ErrConcurrentModification)
}

func TestStoreScoping(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	_, product := seedStore(t, s)
	other, _ := seedStore(t, s)

	_, err := s.GetProduct(ctx, other.ID, product.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := s.ListProducts(ctx, other.ID, core.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, product.ID, list[0].ID)
}

func TestCashBalance_DefaultsToZero(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	store, _ := seedStore(t, s)

	b, err := s.GetCashBalance(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, b.Balance.IsZero())

	require.NoError(t, s.InTx(ctx, func(q core.Queries) error {
		bal, err := q.GetCashBalanceForUpdate(ctx, store.ID)
		if err != nil {
			return err
		}
		bal.Balance = decimal.NewFromInt(42)
		return q.UpdateCashBalance(ctx, bal)
	}))
	b, err = s.GetCashBalance(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(42).Equal(b.Balance))

	err = s.InTx(ctx, func(q core.Queries) error {
		_, err := q.GetCashBalanceForUpdate(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
