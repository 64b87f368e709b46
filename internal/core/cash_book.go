package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CashBook keeps the store's cash on hand. Every change to the running balance is
// paired with an append-only CashEntry in the same transaction, so the balance can
// always be rebuilt by folding the entries.
type CashBook interface {
	Balance(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error)
	Entries(ctx context.Context, storeID uuid.UUID, f CashFilter) ([]CashEntry, error)
	// Add credits a positive amount. m.Type must be an inflow type.
	Add(ctx context.Context, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error)
	// Deduct debits a positive amount. Unless the store allows a negative balance,
	// a deduction larger than the balance fails with ErrInsufficientBalance.
	Deduct(ctx context.Context, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error)

	AddTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error)
	DeductTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error)
}

type cashBook struct {
	repo     Repository
	policies PolicyEngine
	log      *logrus.Logger
}

func NewCashBook(repo Repository, policies PolicyEngine, log *logrus.Logger) CashBook {
	return &cashBook{repo: repo, policies: policies, log: log}
}

func (c *cashBook) Balance(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	b, err := c.repo.GetCashBalance(ctx, storeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read cash balance: %w", err)
	}
	return b.Balance, nil
}

func (c *cashBook) Entries(ctx context.Context, storeID uuid.UUID, f CashFilter) ([]CashEntry, error) {
	if f.Type != "" && f.Type != "all" && !f.Type.Valid() {
		return nil, invalidf("unknown cash entry type %q", f.Type)
	}
	entries, err := c.repo.ListCashEntries(ctx, storeID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash entries: %w", err)
	}
	return entries, nil
}

func (c *cashBook) Add(ctx context.Context, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error) {
	var entry *CashEntry
	err := c.repo.InTx(ctx, func(q Queries) error {
		var err error
		entry, err = c.AddTx(ctx, q, actor, storeID, m)
		return err
	})
	return entry, err
}

func (c *cashBook) Deduct(ctx context.Context, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error) {
	var entry *CashEntry
	err := c.repo.InTx(ctx, func(q Queries) error {
		var err error
		entry, err = c.DeductTx(ctx, q, actor, storeID, m)
		return err
	})
	return entry, err
}

func (c *cashBook) AddTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error) {
	if !m.Type.Inflow() {
		return nil, invalidf("cash entry type %q does not add to the balance", m.Type)
	}
	return c.post(ctx, q, actor, storeID, m, 1, false)
}

func (c *cashBook) DeductTx(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m CashMovement) (*CashEntry, error) {
	if !m.Type.Valid() || m.Type.Inflow() {
		return nil, invalidf("cash entry type %q does not deduct from the balance", m.Type)
	}
	settings, err := c.policies.Resolve(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, q, actor, storeID, m, -1, settings.AllowNegativeCash)
}

// post applies a signed movement to the locked balance row and appends its entry.
func (c *cashBook) post(ctx context.Context, q Queries, actor Actor, storeID uuid.UUID, m CashMovement, sign int64, allowNegative bool) (*CashEntry, error) {
	if !m.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !WholeCents(m.Amount) {
		return nil, fmt.Errorf("%w: %s is not a whole number of cents", ErrInvalidAmount, m.Amount)
	}
	amount := m.Amount.Mul(decimal.NewFromInt(sign))

	bal, err := q.GetCashBalanceForUpdate(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cash balance: %w", err)
	}
	next := bal.Balance.Add(amount)
	if next.IsNegative() && !allowNegative {
		return nil, fmt.Errorf("%w: balance %s, deduction %s", ErrInsufficientBalance, bal.Balance.StringFixed(2), m.Amount.StringFixed(2))
	}

	ts := now()
	bal.Balance = next
	bal.UpdatedAt = ts
	if err := q.UpdateCashBalance(ctx, bal); err != nil {
		return nil, fmt.Errorf("failed to update cash balance: %w", err)
	}

	entry := &CashEntry{
		ID:            uuid.New(),
		StoreID:       storeID,
		EntryType:     m.Type,
		Amount:        amount,
		BalanceAfter:  next,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Notes:         strings.TrimSpace(m.Notes),
		CreatedBy:     actor.UserID,
		CreatedAt:     ts,
	}
	if err := q.InsertCashEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to insert cash entry: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"store_id":      storeID,
		"type":          m.Type,
		"amount":        amount.StringFixed(2),
		"balance_after": next.StringFixed(2),
	}).Debug("cash entry posted")
	return entry, nil
}
