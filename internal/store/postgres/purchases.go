package postgres

import (
	"context"
	"fmt"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const purchaseColumns = `pu.id, pu.store_id, pu.supplier_id, s.name, pu.purchase_date, pu.total_amount,
	pu.paid_amount, pu.due_amount, pu.deducted_from_balance, pu.notes, pu.created_by, pu.created_at`

const purchaseFrom = ` FROM purchases pu JOIN suppliers s ON s.id = pu.supplier_id`

func scanPurchase(row pgx.Row) (*core.Purchase, error) {
	var p core.Purchase
	err := row.Scan(&p.ID, &p.StoreID, &p.SupplierID, &p.SupplierName, &p.PurchaseDate, &p.TotalAmount,
		&p.PaidAmount, &p.DueAmount, &p.DeductedFromBalance, &p.Notes, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) InsertPurchase(ctx context.Context, p *core.Purchase) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO purchases (id, store_id, supplier_id, purchase_date, total_amount, paid_amount,
			due_amount, deducted_from_balance, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.StoreID, p.SupplierID, p.PurchaseDate, p.TotalAmount, p.PaidAmount,
		p.DueAmount, p.DeductedFromBalance, p.Notes, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return translate(err, notFound("supplier", p.SupplierID))
	}
	for i, it := range p.Items {
		_, err := q.db.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, line_no, product_id, product_name, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitCost, it.LineTotal)
		if err != nil {
			return translate(err, productNotFound(it.ProductID))
		}
	}
	return nil
}

func (q *Queries) GetPurchase(ctx context.Context, storeID, id uuid.UUID) (*core.Purchase, error) {
	p, err := scanPurchase(q.db.QueryRow(ctx,
		`SELECT `+purchaseColumns+purchaseFrom+` WHERE pu.store_id = $1 AND pu.id = $2`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("purchase", id))
	}
	items, err := q.purchaseItems(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Items = items[p.ID]
	return p, nil
}

func (q *Queries) ListPurchases(ctx context.Context, storeID uuid.UUID, f core.PurchaseFilter) ([]core.Purchase, error) {
	w := &whereBuilder{}
	w.add("pu.store_id = ?", storeID)
	if f.SupplierID != nil {
		w.add("pu.supplier_id = ?", *f.SupplierID)
	}
	if f.From != nil {
		w.add("pu.purchase_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("pu.purchase_date <= ?", *f.To)
	}

	rows, err := q.db.Query(ctx,
		`SELECT `+purchaseColumns+purchaseFrom+` WHERE `+w.sql()+` ORDER BY pu.purchase_date DESC, pu.created_at DESC`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	out := []core.Purchase{}
	ids := []uuid.UUID{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		out = append(out, *p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}

	items, err := q.purchaseItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (q *Queries) purchaseItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]core.PurchaseItem, error) {
	out := make(map[uuid.UUID][]core.PurchaseItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT purchase_id, product_id, product_name, quantity, unit_cost, line_total
		FROM purchase_items
		WHERE purchase_id = ANY($1)
		ORDER BY purchase_id, line_no
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var it core.PurchaseItem
		if err := rows.Scan(&id, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitCost, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		out[id] = append(out[id], it)
	}
	return out, rows.Err()
}
