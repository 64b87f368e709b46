package core_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMovement(t *testing.T) {
	tests := []struct {
		name        string
		stock       int
		typ         core.TransactionType
		qty         int
		policy      core.StockOutPolicy
		wantDelta   int
		wantBalance int
		wantErr     error
	}{
		{"stock in", 10, core.TxStockIn, 5, core.StockOutReject, 5, 15, nil},
		{"purchase", 0, core.TxPurchase, 7, core.StockOutReject, 7, 7, nil},
		{"return in", 2, core.TxReturnIn, 1, core.StockOutReject, 1, 3, nil},
		{"stock out within stock", 15, core.TxStockOut, 15, core.StockOutReject, -15, 0, nil},
		{"sale", 4, core.TxSale, 1, core.StockOutReject, -1, 3, nil},
		{"damage", 4, core.TxDamage, 2, core.StockOutClamp, -2, 2, nil},
		{"reject shortfall", 15, core.TxStockOut, 20, core.StockOutReject, 0, 0, core.ErrInsufficientStock},
		{"clamp shortfall", 15, core.TxStockOut, 20, core.StockOutClamp, -15, 0, nil},
		{"clamp records actual removal", 3, core.TxLoss, 5, core.StockOutClamp, -3, 0, nil},
		{"clamp with nothing on hand", 0, core.TxStockOut, 1, core.StockOutClamp, 0, 0, core.ErrInsufficientStock},
		{"stock in up to the limit", core.MaxStock - 1, core.TxStockIn, 1, core.StockOutReject, 1, core.MaxStock, nil},
		{"stock in past the limit", 1, core.TxStockIn, core.MaxStock, core.StockOutReject, 0, 0, core.ErrInvalidQuantity},
		{"purchase overflowing int", 1, core.TxPurchase, math.MaxInt, core.StockOutReject, 0, 0, core.ErrInvalidQuantity},
		{"zero quantity", 5, core.TxStockIn, 0, core.StockOutReject, 0, 0, core.ErrInvalidQuantity},
		{"negative quantity", 5, core.TxStockOut, -2, core.StockOutReject, 0, 0, core.ErrInvalidQuantity},
		{"adjustment is not a movement", 5, core.TxAdjustment, 2, core.StockOutReject, 0, 0, core.ErrInvalidInput},
		{"unknown type", 5, core.TransactionType("gift"), 2, core.StockOutReject, 0, 0, core.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := core.Product{ID: uuid.New(), Name: "Cable", CurrentStock: tt.stock}
			delta, balance, err := core.ComputeMovement(p, tt.typ, tt.qty, tt.policy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelta, delta)
			assert.Equal(t, tt.wantBalance, balance)
			assert.Equal(t, tt.stock+delta, balance)
		})
	}
}

func TestComputeMovement_InsufficientStockDetails(t *testing.T) {
	p := core.Product{ID: uuid.New(), Name: "Charger", CurrentStock: 3}
	_, _, err := core.ComputeMovement(p, core.TxSale, 5, core.StockOutReject)

	var ise *core.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, p.ID, ise.ProductID)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 5, ise.Requested)
	assert.Contains(t, err.Error(), "Charger")
}

func TestComputeAdjustment(t *testing.T) {
	diff, err := core.ComputeAdjustment(10, 7)
	require.NoError(t, err)
	assert.Equal(t, -3, diff)

	diff, err = core.ComputeAdjustment(2, 9)
	require.NoError(t, err)
	assert.Equal(t, 7, diff)

	diff, err = core.ComputeAdjustment(4, 4)
	require.NoError(t, err)
	assert.Zero(t, diff)

	_, err = core.ComputeAdjustment(4, -1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = core.ComputeAdjustment(4, core.MaxStock+1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTransactionTypeDirection(t *testing.T) {
	for _, typ := range core.TransactionTypes {
		assert.True(t, typ.Valid(), typ)
	}
	assert.Equal(t, 1, core.TxPurchase.Direction())
	assert.Equal(t, -1, core.TxSale.Direction())
	assert.Equal(t, 0, core.TxAdjustment.Direction())
	assert.False(t, core.TransactionType("all").Valid())
}

func entry(product uuid.UUID, seq int64, typ core.TransactionType, qty, balance int, at time.Time) core.LedgerEntry {
	return core.LedgerEntry{
		ID:              uuid.New(),
		Seq:             seq,
		ProductID:       product,
		ProductName:     "Item",
		TransactionType: typ,
		Quantity:        qty,
		BalanceAfter:    balance,
		CreatedAt:       at,
	}
}

func TestVerifyChain(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	good := []core.LedgerEntry{
		entry(a, 3, core.TxStockOut, -4, 6, ts),
		entry(a, 1, core.TxStockIn, 10, 10, ts),
		entry(b, 2, core.TxPurchase, 5, 5, ts),
		entry(b, 4, core.TxAdjustment, -2, 3, ts),
	}
	assert.Empty(t, core.VerifyChain(good), "order of the input must not matter")

	broken := append([]core.LedgerEntry{}, good...)
	broken = append(broken, entry(a, 5, core.TxSale, -1, 4, ts))
	breaks := core.VerifyChain(broken)
	require.Len(t, breaks, 1)
	assert.Equal(t, a, breaks[0].ProductID)
	assert.Equal(t, 5, breaks[0].Expected)
	assert.Equal(t, 4, breaks[0].Actual)
	assert.Contains(t, breaks[0].String(), "expected balance 5")
}

func TestLatestBalances(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ts := time.Now()
	got := core.LatestBalances([]core.LedgerEntry{
		entry(a, 2, core.TxStockOut, -1, 9, ts),
		entry(a, 1, core.TxStockIn, 10, 10, ts),
		entry(b, 3, core.TxStockIn, 2, 2, ts),
	})
	assert.Equal(t, map[uuid.UUID]int{a: 9, b: 2}, got)
}

func TestFilterEntries(t *testing.T) {
	cable, charger := uuid.New(), uuid.New()
	day := func(d int) time.Time { return time.Date(2026, 5, d, 12, 0, 0, 0, time.UTC) }

	entries := []core.LedgerEntry{
		entry(cable, 1, core.TxStockIn, 10, 10, day(1)),
		entry(cable, 2, core.TxSale, -2, 8, day(3)),
		entry(charger, 3, core.TxStockIn, 4, 4, day(3)),
		entry(charger, 4, core.TxDamage, -1, 3, day(5)),
		entry(cable, 5, core.TxSale, -1, 7, day(7)),
	}
	entries[0].ProductName = "USB-C Cable"
	entries[1].ProductName = "USB-C Cable"
	entries[4].ProductName = "USB-C Cable"
	entries[2].ProductName = "Wall Charger"
	entries[3].ProductName = "Wall Charger"
	entries[3].Notes = "dropped on floor"

	from, to := day(3), day(5)
	tests := []struct {
		name    string
		filter  core.LedgerFilter
		wantSeq []int64
	}{
		{"no criteria", core.LedgerFilter{}, []int64{1, 2, 3, 4, 5}},
		{"all is every type", core.LedgerFilter{Type: "all"}, []int64{1, 2, 3, 4, 5}},
		{"type", core.LedgerFilter{Type: core.TxSale}, []int64{2, 5}},
		{"date range is inclusive", core.LedgerFilter{From: &from, To: &to}, []int64{2, 3, 4}},
		{"type and range", core.LedgerFilter{Type: core.TxSale, From: &from, To: &to}, []int64{2}},
		{"product", core.LedgerFilter{ProductID: &charger}, []int64{3, 4}},
		{"search name", core.LedgerFilter{Search: "cable"}, []int64{1, 2, 5}},
		{"search notes", core.LedgerFilter{Search: "FLOOR"}, []int64{4}},
		{"search and type", core.LedgerFilter{Search: "cable", Type: core.TxStockIn}, []int64{1}},
		{"limit", core.LedgerFilter{Limit: 2}, []int64{1, 2}},
		{"nothing matches", core.LedgerFilter{Type: core.TxReturnOut}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, e := range core.FilterEntries(entries, tt.filter) {
				got = append(got, e.Seq)
			}
			assert.Equal(t, tt.wantSeq, got)
		})
	}
}
