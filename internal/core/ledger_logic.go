package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// MaxStock is the largest stock level a product can hold. It matches the int4
// columns that store quantities and balances.
const MaxStock = math.MaxInt32

// ComputeMovement returns the signed quantity to record and the resulting balance
// for moving quantity units of p in the direction of typ.
//
// An outbound movement larger than the stock on hand is governed by policy.
// Under StockOutReject it fails with *InsufficientStockError. Under StockOutClamp
// the balance goes to zero and the returned delta is the amount actually removed,
// so the recorded entry always satisfies previous + delta == balance.
func ComputeMovement(p Product, typ TransactionType, quantity int, policy StockOutPolicy) (delta, balance int, err error) {
	if quantity <= 0 {
		return 0, 0, ErrInvalidQuantity
	}
	switch typ.Direction() {
	case 1:
		if quantity > MaxStock-p.CurrentStock {
			return 0, 0, fmt.Errorf("%w: %d more units would exceed the stock limit of %d", ErrInvalidQuantity, quantity, MaxStock)
		}
		return quantity, p.CurrentStock + quantity, nil
	case -1:
		if quantity <= p.CurrentStock {
			return -quantity, p.CurrentStock - quantity, nil
		}
		if policy == StockOutClamp && p.CurrentStock > 0 {
			return -p.CurrentStock, 0, nil
		}
		return 0, 0, &InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.CurrentStock,
			Requested:   quantity,
		}
	}
	return 0, 0, invalidf("transaction type %q cannot be recorded as a movement", typ)
}

// ComputeAdjustment returns the signed difference between a counted stock level
// and the current one.
func ComputeAdjustment(current, counted int) (int, error) {
	if counted < 0 {
		return 0, invalidf("counted stock cannot be negative, got %d", counted)
	}
	if counted > MaxStock {
		return 0, invalidf("counted stock %d exceeds the stock limit of %d", counted, MaxStock)
	}
	return counted - current, nil
}

// FilterEntries returns the entries matching f, preserving order and honouring f.Limit.
func FilterEntries(entries []LedgerEntry, f LedgerFilter) []LedgerEntry {
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// ChainBreak describes a ledger entry whose balance does not follow from its predecessor.
type ChainBreak struct {
	ProductID uuid.UUID `json:"product_id"`
	EntryID   uuid.UUID `json:"entry_id"`
	Expected  int       `json:"expected"`
	Actual    int       `json:"actual"`
}

func (b ChainBreak) String() string {
	return fmt.Sprintf("product %s entry %s: expected balance %d, recorded %d", b.ProductID, b.EntryID, b.Expected, b.Actual)
}

// VerifyChain checks, per product, that every entry's BalanceAfter equals the previous
// entry's BalanceAfter plus its Quantity, starting from zero. Entries may be given in
// any order; Seq decides the chronology.
func VerifyChain(entries []LedgerEntry) []ChainBreak {
	byProduct := make(map[uuid.UUID][]LedgerEntry)
	for _, e := range entries {
		byProduct[e.ProductID] = append(byProduct[e.ProductID], e)
	}

	var breaks []ChainBreak
	for productID, list := range byProduct {
		sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
		balance := 0
		for _, e := range list {
			expected := balance + e.Quantity
			if e.BalanceAfter != expected {
				breaks = append(breaks, ChainBreak{ProductID: productID, EntryID: e.ID, Expected: expected, Actual: e.BalanceAfter})
			}
			balance = e.BalanceAfter
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].EntryID.String() < breaks[j].EntryID.String() })
	return breaks
}

// LatestBalances returns the BalanceAfter of the most recent entry of each product.
func LatestBalances(entries []LedgerEntry) map[uuid.UUID]int {
	latest := make(map[uuid.UUID]LedgerEntry)
	for _, e := range entries {
		if cur, ok := latest[e.ProductID]; !ok || e.Seq > cur.Seq {
			latest[e.ProductID] = e
		}
	}
	out := make(map[uuid.UUID]int, len(latest))
	for id, e := range latest {
		out[id] = e.BalanceAfter
	}
	return out
}
