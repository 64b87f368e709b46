package postgres

import (
	"context"
	"fmt"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NextSequence draws the next gapless number for (store, docType, year). The upsert
// holds the sequence row lock until the caller's transaction ends.
func (q *Queries) NextSequence(ctx context.Context, storeID uuid.UUID, docType string, year int) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO document_sequences (store_id, type_code, year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (store_id, type_code, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, storeID, docType, year).Scan(&n)
	if err != nil {
		return 0, translate(err, notFound("store", storeID))
	}
	return n, nil
}

const saleColumns = `sa.id, sa.store_id, sa.invoice_number, sa.customer_id, COALESCE(c.name, ''),
	sa.subtotal, sa.discount, sa.total, sa.paid_amount, sa.change_amount, sa.due_amount,
	sa.payment_method, sa.created_by, sa.created_at`

const saleFrom = ` FROM sales sa LEFT JOIN customers c ON c.id = sa.customer_id`

func scanSale(row pgx.Row) (*core.Sale, error) {
	var s core.Sale
	err := row.Scan(&s.ID, &s.StoreID, &s.InvoiceNumber, &s.CustomerID, &s.CustomerName,
		&s.Subtotal, &s.Discount, &s.Total, &s.PaidAmount, &s.ChangeAmount, &s.DueAmount,
		&s.PaymentMethod, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (q *Queries) InsertSale(ctx context.Context, s *core.Sale) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO sales (id, store_id, invoice_number, customer_id, subtotal, discount, total,
			paid_amount, change_amount, due_amount, payment_method, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, s.ID, s.StoreID, s.InvoiceNumber, s.CustomerID, s.Subtotal, s.Discount, s.Total,
		s.PaidAmount, s.ChangeAmount, s.DueAmount, s.PaymentMethod, s.CreatedBy, s.CreatedAt)
	if err != nil {
		return translate(err, notFound("customer", s.CustomerID))
	}
	for i, it := range s.Items {
		_, err := q.db.Exec(ctx, `
			INSERT INTO sale_items (sale_id, line_no, product_id, product_name, quantity, unit_price,
				line_total, serial_number, warranty_expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, s.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice,
			it.LineTotal, it.SerialNumber, it.WarrantyExpiresAt)
		if err != nil {
			return translate(err, productNotFound(it.ProductID))
		}
	}
	for _, inst := range s.Installments {
		_, err := q.db.Exec(ctx, `
			INSERT INTO sale_installments (sale_id, seq, due_date, amount, paid_amount)
			VALUES ($1, $2, $3, $4, $5)
		`, s.ID, inst.Seq, inst.DueDate, inst.Amount, inst.PaidAmount)
		if err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", inst.Seq, err)
		}
	}
	return nil
}

func (q *Queries) GetSale(ctx context.Context, storeID, id uuid.UUID) (*core.Sale, error) {
	return q.getSale(ctx, `SELECT `+saleColumns+saleFrom+` WHERE sa.store_id = $1 AND sa.id = $2`, storeID, id)
}

func (q *Queries) GetSaleForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Sale, error) {
	return q.getSale(ctx,
		`SELECT `+saleColumns+saleFrom+` WHERE sa.store_id = $1 AND sa.id = $2 FOR UPDATE OF sa`, storeID, id)
}

func (q *Queries) getSale(ctx context.Context, sql string, storeID, id uuid.UUID) (*core.Sale, error) {
	s, err := scanSale(q.db.QueryRow(ctx, sql, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("sale", id))
	}
	if err := q.loadSaleLines(ctx, []*core.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (q *Queries) ListSales(ctx context.Context, storeID uuid.UUID, f core.SaleFilter) ([]core.Sale, error) {
	w := &whereBuilder{}
	w.add("sa.store_id = ?", storeID)
	if f.CustomerID != nil {
		w.add("sa.customer_id = ?", *f.CustomerID)
	}
	if f.From != nil {
		w.add("sa.created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("sa.created_at <= ?", *f.To)
	}
	sql := `SELECT ` + saleColumns + saleFrom + ` WHERE ` + w.sql() + ` ORDER BY sa.created_at DESC, sa.invoice_number DESC`
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := q.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	sales := []*core.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}

	if err := q.loadSaleLines(ctx, sales); err != nil {
		return nil, err
	}
	out := make([]core.Sale, len(sales))
	for i, s := range sales {
		out[i] = *s
	}
	return out, nil
}

func (q *Queries) UpdateSalePayment(ctx context.Context, s *core.Sale) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE sales SET paid_amount = $3, due_amount = $4 WHERE store_id = $1 AND id = $2`,
		s.StoreID, s.ID, s.PaidAmount, s.DueAmount)
	if err != nil {
		return fmt.Errorf("failed to update sale payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("sale", s.ID)
	}
	for _, inst := range s.Installments {
		if _, err := q.db.Exec(ctx,
			`UPDATE sale_installments SET paid_amount = $3 WHERE sale_id = $1 AND seq = $2`,
			s.ID, inst.Seq, inst.PaidAmount); err != nil {
			return fmt.Errorf("failed to update installment %d: %w", inst.Seq, err)
		}
	}
	return nil
}

// FindSaleBySerial returns the most recent sale carrying serial, compared
// case-insensitively.
func (q *Queries) FindSaleBySerial(ctx context.Context, storeID uuid.UUID, serial string) (*core.Sale, error) {
	s, err := scanSale(q.db.QueryRow(ctx, `
		SELECT `+saleColumns+saleFrom+`
		WHERE sa.store_id = $1 AND EXISTS (
			SELECT 1 FROM sale_items si
			WHERE si.sale_id = sa.id AND si.serial_number <> '' AND lower(si.serial_number) = lower($2)
		)
		ORDER BY sa.created_at DESC
		LIMIT 1
	`, storeID, serial))
	if err != nil {
		return nil, translate(err, notFound("serial", serial))
	}
	if err := q.loadSaleLines(ctx, []*core.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// loadSaleLines fills Items and Installments for every sale with two queries.
func (q *Queries) loadSaleLines(ctx context.Context, sales []*core.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*core.Sale, len(sales))
	ids := make([]uuid.UUID, 0, len(sales))
	for _, s := range sales {
		s.Items = []core.SaleItem{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := q.db.Query(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price, line_total, serial_number, warranty_expires_at
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, line_no
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query sale items: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		var it core.SaleItem
		if err := rows.Scan(&id, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice,
			&it.LineTotal, &it.SerialNumber, &it.WarrantyExpiresAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		byID[id].Items = append(byID[id].Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read sale items: %w", err)
	}

	rows, err = q.db.Query(ctx, `
		SELECT sale_id, seq, due_date, amount, paid_amount
		FROM sale_installments WHERE sale_id = ANY($1) ORDER BY sale_id, seq
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var inst core.Installment
		if err := rows.Scan(&id, &inst.Seq, &inst.DueDate, &inst.Amount, &inst.PaidAmount); err != nil {
			return fmt.Errorf("failed to scan installment: %w", err)
		}
		byID[id].Installments = append(byID[id].Installments, inst)
	}
	return rows.Err()
}
