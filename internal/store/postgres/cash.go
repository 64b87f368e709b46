package postgres

import (
	"context"
	"errors"
	"fmt"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (q *Queries) GetCashBalanceForUpdate(ctx context.Context, storeID uuid.UUID) (*core.CashBalance, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO cash_balances (store_id, balance, version, updated_at)
		VALUES ($1, 0, 0, now())
		ON CONFLICT (store_id) DO NOTHING
	`, storeID)
	if err != nil {
		return nil, translate(err, notFound("store", storeID))
	}

	var b core.CashBalance
	err = q.db.QueryRow(ctx, `
		SELECT store_id, balance, version, updated_at FROM cash_balances WHERE store_id = $1 FOR UPDATE
	`, storeID).Scan(&b.StoreID, &b.Balance, &b.Version, &b.UpdatedAt)
	if err != nil {
		return nil, translate(err, notFound("cash balance", storeID))
	}
	return &b, nil
}

func (q *Queries) GetCashBalance(ctx context.Context, storeID uuid.UUID) (*core.CashBalance, error) {
	var b core.CashBalance
	err := q.db.QueryRow(ctx, `
		SELECT store_id, balance, version, updated_at FROM cash_balances WHERE store_id = $1
	`, storeID).Scan(&b.StoreID, &b.Balance, &b.Version, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &core.CashBalance{StoreID: storeID, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cash balance: %w", err)
	}
	return &b, nil
}

func (q *Queries) UpdateCashBalance(ctx context.Context, b *core.CashBalance) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE cash_balances SET balance = $2, updated_at = $3, version = version + 1
		WHERE store_id = $1 AND version = $4
	`, b.StoreID, b.Balance, b.UpdatedAt, b.Version)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cash balance of store %s", core.ErrConcurrentModification, b.StoreID)
	}
	b.Version++
	return nil
}

const cashEntryColumns = `id, seq, store_id, entry_type, amount, balance_after, reference_type,
	reference_id, notes, created_by, created_at`

func (q *Queries) InsertCashEntry(ctx context.Context, e *core.CashEntry) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO cash_entries (id, store_id, entry_type, amount, balance_after, reference_type,
			reference_id, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`, e.ID, e.StoreID, e.EntryType, e.Amount, e.BalanceAfter, e.ReferenceType,
		e.ReferenceID, e.Notes, e.CreatedBy, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return translate(err, notFound("store", e.StoreID))
	}
	return nil
}

func (q *Queries) ListCashEntries(ctx context.Context, storeID uuid.UUID, f core.CashFilter) ([]core.CashEntry, error) {
	w := &whereBuilder{}
	w.add("store_id = ?", storeID)
	if f.Type != "" && f.Type != "all" {
		w.add("entry_type = ?", f.Type)
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= ?", *f.To)
	}

	sql := `SELECT ` + cashEntryColumns + ` FROM cash_entries WHERE ` + w.sql() + ` ORDER BY seq DESC`
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := q.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash entries: %w", err)
	}
	defer rows.Close()

	out := []core.CashEntry{}
	for rows.Next() {
		var e core.CashEntry
		if err := rows.Scan(&e.ID, &e.Seq, &e.StoreID, &e.EntryType, &e.Amount, &e.BalanceAfter,
			&e.ReferenceType, &e.ReferenceID, &e.Notes, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) SumCashEntries(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM cash_entries WHERE store_id = $1`, storeID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum cash entries: %w", err)
	}
	return total, nil
}
