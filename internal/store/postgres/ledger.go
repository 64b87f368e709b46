package postgres

import (
	"context"
	"fmt"
	"strings"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `l.id, l.seq, l.store_id, l.product_id, p.name, l.transaction_type, l.quantity,
	l.balance_after, l.batch_number, l.serial_number, l.reference_type, l.reference_id,
	l.notes, l.created_by, l.created_at`

func scanLedgerEntry(row pgx.Row) (*core.LedgerEntry, error) {
	var e core.LedgerEntry
	err := row.Scan(
		&e.ID, &e.Seq, &e.StoreID, &e.ProductID, &e.ProductName, &e.TransactionType, &e.Quantity,
		&e.BalanceAfter, &e.BatchNumber, &e.SerialNumber, &e.ReferenceType, &e.ReferenceID,
		&e.Notes, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *Queries) InsertLedgerEntry(ctx context.Context, e *core.LedgerEntry) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO stock_ledger (id, store_id, product_id, transaction_type, quantity, balance_after,
			batch_number, serial_number, reference_type, reference_id, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq
	`, e.ID, e.StoreID, e.ProductID, e.TransactionType, e.Quantity, e.BalanceAfter,
		e.BatchNumber, e.SerialNumber, e.ReferenceType, e.ReferenceID, e.Notes, e.CreatedBy, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return translate(err, productNotFound(e.ProductID))
	}
	return nil
}

// ListLedgerEntries pushes every filter criterion into SQL. Product names come
// from the products table so renamed products show their current name.
func (q *Queries) ListLedgerEntries(ctx context.Context, storeID uuid.UUID, f core.LedgerFilter) ([]core.LedgerEntry, error) {
	w := &whereBuilder{}
	w.add("l.store_id = ?", storeID)
	if !f.MatchesAllTypes() {
		w.add("l.transaction_type = ?", f.Type)
	}
	if f.ProductID != nil {
		w.add("l.product_id = ?", *f.ProductID)
	}
	if f.From != nil {
		w.add("l.created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("l.created_at <= ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("(p.name ILIKE ? OR l.notes ILIKE ?)", "%"+escapeLike(s)+"%")
	}

	sql := `SELECT ` + ledgerColumns + `
		FROM stock_ledger l JOIN products p ON p.id = l.product_id
		WHERE ` + w.sql() + `
		ORDER BY l.created_at DESC, l.seq DESC`
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := q.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock ledger: %w", err)
	}
	defer rows.Close()

	out := []core.LedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ── Adjustments ───────────────────────────────────────────────────────────────

func (q *Queries) InsertAdjustment(ctx context.Context, a *core.StockAdjustment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO stock_adjustments (id, store_id, adjustment_date, reason, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.StoreID, a.AdjustmentDate, a.Reason, a.Notes, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return translate(err, notFound("store", a.StoreID))
	}
	for i, it := range a.Items {
		_, err := q.db.Exec(ctx, `
			INSERT INTO stock_adjustment_items (adjustment_id, line_no, product_id, product_name,
				previous_stock, new_stock, difference)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, a.ID, i+1, it.ProductID, it.ProductName, it.PreviousStock, it.NewStock, it.Difference)
		if err != nil {
			return translate(err, productNotFound(it.ProductID))
		}
	}
	return nil
}

const adjustmentColumns = `id, store_id, adjustment_date, reason, notes, created_by, created_at`

func scanAdjustment(row pgx.Row) (*core.StockAdjustment, error) {
	var a core.StockAdjustment
	if err := row.Scan(&a.ID, &a.StoreID, &a.AdjustmentDate, &a.Reason, &a.Notes, &a.CreatedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (q *Queries) GetAdjustment(ctx context.Context, storeID, id uuid.UUID) (*core.StockAdjustment, error) {
	a, err := scanAdjustment(q.db.QueryRow(ctx,
		`SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE store_id = $1 AND id = $2`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("stock adjustment", id))
	}
	items, err := q.adjustmentItems(ctx, []uuid.UUID{a.ID})
	if err != nil {
		return nil, err
	}
	a.Items = items[a.ID]
	return a, nil
}

func (q *Queries) ListAdjustments(ctx context.Context, storeID uuid.UUID) ([]core.StockAdjustment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE store_id = $1
		 ORDER BY created_at DESC, id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock adjustments: %w", err)
	}
	out := []core.StockAdjustment{}
	ids := []uuid.UUID{}
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stock adjustment: %w", err)
		}
		out = append(out, *a)
		ids = append(ids, a.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock adjustments: %w", err)
	}

	items, err := q.adjustmentItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (q *Queries) adjustmentItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]core.AdjustmentItem, error) {
	out := make(map[uuid.UUID][]core.AdjustmentItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT adjustment_id, product_id, product_name, previous_stock, new_stock, difference
		FROM stock_adjustment_items
		WHERE adjustment_id = ANY($1)
		ORDER BY adjustment_id, line_no
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustment items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var adjID uuid.UUID
		var it core.AdjustmentItem
		if err := rows.Scan(&adjID, &it.ProductID, &it.ProductName, &it.PreviousStock, &it.NewStock, &it.Difference); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment item: %w", err)
		}
		out[adjID] = append(out[adjID], it)
	}
	return out, rows.Err()
}
