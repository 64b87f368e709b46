package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StockLedger is the single writer of product stock. Every change to
// Product.CurrentStock goes through it and leaves exactly one ledger entry.
type StockLedger interface {
	// Standalone operations (manage their own transactions).

	// StockIn adds quantity units of a product.
	StockIn(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error)
	// StockOut removes quantity units; shortfalls follow the store's stock-out policy.
	StockOut(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error)
	// Record posts a movement of any non-adjustment type (returns, damage, loss).
	Record(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error)
	// Adjust applies a physical-count batch atomically: either every item is posted or none.
	Adjust(ctx context.Context, actor Actor, storeID uuid.UUID, in AdjustmentInput) (*StockAdjustment, error)

	Entries(ctx context.Context, storeID uuid.UUID, f LedgerFilter) ([]LedgerEntry, error)
	ProductHistory(ctx context.Context, storeID, productID uuid.UUID) ([]LedgerEntry, error)
	GetAdjustment(ctx context.Context, storeID, id uuid.UUID) (*StockAdjustment, error)
	ListAdjustments(ctx context.Context, storeID uuid.UUID) ([]StockAdjustment, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by sales and purchases so stock moves atomically with the document.

	// ApplyTx locks the product row, applies the movement under policy and appends
	// the ledger entry. It returns the entry and the updated product.
	ApplyTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m Movement, policy StockOutPolicy) (*LedgerEntry, *Product, error)
}

type stockLedger struct {
	repo     Repository
	policies PolicyEngine
	log      *logrus.Logger
}

func NewStockLedger(repo Repository, policies PolicyEngine, log *logrus.Logger) StockLedger {
	return &stockLedger{repo: repo, policies: policies, log: log}
}

// now is the timestamp source for every row written by the services. Postgres keeps
// microseconds, so values are truncated to match after a round trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockLedger) StockIn(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error) {
	m.Type = TxStockIn
	return s.Record(ctx, actor, storeID, m)
}

func (s *stockLedger) StockOut(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error) {
	m.Type = TxStockOut
	return s.Record(ctx, actor, storeID, m)
}

func (s *stockLedger) Record(ctx context.Context, actor Actor, storeID uuid.UUID, m Movement) (*LedgerEntry, error) {
	if m.Type == TxAdjustment || !m.Type.Valid() {
		return nil, invalidf("unsupported movement type %q", m.Type)
	}
	if m.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var entry *LedgerEntry
	err := s.repo.InTx(ctx, func(q Queries) error {
		settings, err := s.policies.Resolve(ctx, q, storeID)
		if err != nil {
			return err
		}
		entry, _, err = s.ApplyTx(ctx, q, actor, storeID, m, settings.StockOutPolicy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stockLedger) Adjust(ctx context.Context, actor Actor, storeID uuid.UUID, in AdjustmentInput) (*StockAdjustment, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, invalidf("adjustment reason is required")
	}
	if len(in.Items) == 0 {
		return nil, invalidf("adjustment must contain at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(in.Items))
	for _, it := range in.Items {
		if seen[it.ProductID] {
			return nil, fmt.Errorf("%w: product %s appears more than once", ErrDuplicateItem, it.ProductID)
		}
		seen[it.ProductID] = true
		if it.NewStock < 0 {
			return nil, invalidf("counted stock cannot be negative, got %d", it.NewStock)
		}
	}

	ts := now()
	adj := &StockAdjustment{
		ID:             uuid.New(),
		StoreID:        storeID,
		AdjustmentDate: in.AdjustmentDate,
		Reason:         in.Reason,
		Notes:          strings.TrimSpace(in.Notes),
		Items:          make([]AdjustmentItem, len(in.Items)),
		CreatedBy:      actor.UserID,
		CreatedAt:      ts,
	}
	if adj.AdjustmentDate.IsZero() {
		adj.AdjustmentDate = ts
	}

	err := s.repo.InTx(ctx, func(q Queries) error {
		// Lock rows in a fixed order so concurrent batches cannot deadlock.
		order := make([]int, len(in.Items))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return in.Items[order[a]].ProductID.String() < in.Items[order[b]].ProductID.String()
		})

		products := make([]*Product, len(in.Items))
		for _, i := range order {
			p, err := lockActiveProduct(ctx, q, storeID, in.Items[i].ProductID)
			if err != nil {
				return err
			}
			diff, err := ComputeAdjustment(p.CurrentStock, in.Items[i].NewStock)
			if err != nil {
				return err
			}
			products[i] = p
			adj.Items[i] = AdjustmentItem{
				ProductID:     p.ID,
				ProductName:   p.Name,
				PreviousStock: p.CurrentStock,
				NewStock:      in.Items[i].NewStock,
				Difference:    diff,
			}
		}

		if err := q.InsertAdjustment(ctx, adj); err != nil {
			return fmt.Errorf("failed to insert stock adjustment: %w", err)
		}

		for i, item := range adj.Items {
			if item.Difference == 0 {
				continue
			}
			p := products[i]
			p.CurrentStock = item.NewStock
			p.UpdatedAt = ts
			if err := q.UpdateProduct(ctx, p); err != nil {
				return fmt.Errorf("failed to update stock for %s: %w", p.Name, err)
			}
			entry := &LedgerEntry{
				ID:              uuid.New(),
				StoreID:         storeID,
				ProductID:       p.ID,
				ProductName:     p.Name,
				TransactionType: TxAdjustment,
				Quantity:        item.Difference,
				BalanceAfter:    item.NewStock,
				ReferenceType:   RefAdjustment,
				ReferenceID:     &adj.ID,
				Notes:           adj.Reason,
				CreatedBy:       actor.UserID,
				CreatedAt:       ts,
			}
			if err := q.InsertLedgerEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to insert adjustment ledger entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"store_id": storeID,
			"items":    len(in.Items),
		}).WithError(err).Warn("stock adjustment rolled back")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"store_id":      storeID,
		"adjustment_id": adj.ID,
		"difference":    adj.TotalDifference(),
	}).Info("stock adjustment posted")
	return adj, nil
}

func (s *stockLedger) Entries(ctx context.Context, storeID uuid.UUID, f LedgerFilter) ([]LedgerEntry, error) {
	if !f.MatchesAllTypes() && !f.Type.Valid() {
		return nil, invalidf("unknown transaction type %q", f.Type)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, invalidf("from date is after to date")
	}
	entries, err := s.repo.ListLedgerEntries(ctx, storeID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock ledger: %w", err)
	}
	return entries, nil
}

func (s *stockLedger) ProductHistory(ctx context.Context, storeID, productID uuid.UUID) ([]LedgerEntry, error) {
	if _, err := s.repo.GetProduct(ctx, storeID, productID); err != nil {
		return nil, err
	}
	return s.Entries(ctx, storeID, LedgerFilter{ProductID: &productID})
}

func (s *stockLedger) GetAdjustment(ctx context.Context, storeID, id uuid.UUID) (*StockAdjustment, error) {
	return s.repo.GetAdjustment(ctx, storeID, id)
}

func (s *stockLedger) ListAdjustments(ctx context.Context, storeID uuid.UUID) ([]StockAdjustment, error) {
	return s.repo.ListAdjustments(ctx, storeID)
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *stockLedger) ApplyTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m Movement, policy StockOutPolicy) (*LedgerEntry, *Product, error) {
	p, err := lockActiveProduct(ctx, q, storeID, m.ProductID)
	if err != nil {
		return nil, nil, err
	}

	delta, balance, err := ComputeMovement(*p, m.Type, m.Quantity, policy)
	if err != nil {
		return nil, nil, err
	}

	ts := now()
	if m.UnitCost != nil && delta > 0 {
		p.PurchaseCost = WeightedAverageCost(p.CurrentStock, p.PurchaseCost, delta, *m.UnitCost)
	}
	p.CurrentStock = balance
	p.UpdatedAt = ts
	if err := q.UpdateProduct(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("failed to update stock for %s: %w", p.Name, err)
	}

	entry := &LedgerEntry{
		ID:              uuid.New(),
		StoreID:         storeID,
		ProductID:       p.ID,
		ProductName:     p.Name,
		TransactionType: m.Type,
		Quantity:        delta,
		BalanceAfter:    balance,
		BatchNumber:     strings.TrimSpace(m.BatchNumber),
		SerialNumber:    strings.TrimSpace(m.SerialNumber),
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Notes:           strings.TrimSpace(m.Notes),
		CreatedBy:       actor.UserID,
		CreatedAt:       ts,
	}
	if err := q.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if delta != -m.Quantity && m.Type.Direction() < 0 {
		s.log.WithFields(logrus.Fields{
			"product_id": p.ID,
			"requested":  m.Quantity,
			"recorded":   -delta,
		}).Warn("stock-out clamped to available stock")
	}
	s.log.WithFields(logrus.Fields{
		"store_id":      storeID,
		"product_id":    p.ID,
		"type":          m.Type,
		"quantity":      delta,
		"balance_after": balance,
	}).Debug("stock movement recorded")
	return entry, p, nil
}

// lockActiveProduct reads a product with a row lock and rejects deactivated products.
func lockActiveProduct(ctx context.Context, q Queries, storeID, productID uuid.UUID) (*Product, error) {
	p, err := q.GetProductForUpdate(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
	}
	return p, nil
}
