package postgres

import (
	"context"
	"fmt"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ── Suppliers ─────────────────────────────────────────────────────────────────

const supplierColumns = `id, store_id, name, phone, email, address, due_amount, is_active, created_at`

func scanSupplier(row pgx.Row) (*core.Supplier, error) {
	var s core.Supplier
	err := row.Scan(&s.ID, &s.StoreID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.DueAmount, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (q *Queries) InsertSupplier(ctx context.Context, s *core.Supplier) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO suppliers (id, store_id, name, phone, email, address, due_amount, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.StoreID, s.Name, s.Phone, s.Email, s.Address, s.DueAmount, s.IsActive, s.CreatedAt)
	if err != nil {
		return translate(err, notFound("store", s.StoreID))
	}
	return nil
}

func (q *Queries) GetSupplier(ctx context.Context, storeID, id uuid.UUID) (*core.Supplier, error) {
	s, err := scanSupplier(q.db.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE store_id = $1 AND id = $2`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("supplier", id))
	}
	return s, nil
}

func (q *Queries) GetSupplierForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Supplier, error) {
	s, err := scanSupplier(q.db.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE store_id = $1 AND id = $2 FOR UPDATE`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("supplier", id))
	}
	return s, nil
}

func (q *Queries) ListSuppliers(ctx context.Context, storeID uuid.UUID) ([]core.Supplier, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE store_id = $1 ORDER BY name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	out := []core.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateSupplierDue(ctx context.Context, storeID, id uuid.UUID, due decimal.Decimal) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE suppliers SET due_amount = $3 WHERE store_id = $1 AND id = $2`, storeID, id, due)
	if err != nil {
		return fmt.Errorf("failed to update supplier due: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("supplier", id)
	}
	return nil
}

func (q *Queries) InsertSupplierPayment(ctx context.Context, p *core.SupplierPayment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO supplier_payments (id, store_id, supplier_id, amount, deducted_from_balance, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.StoreID, p.SupplierID, p.Amount, p.DeductedFromBalance, p.Notes, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return translate(err, notFound("supplier", p.SupplierID))
	}
	return nil
}

func (q *Queries) ListSupplierPayments(ctx context.Context, storeID, supplierID uuid.UUID) ([]core.SupplierPayment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, store_id, supplier_id, amount, deducted_from_balance, notes, created_by, created_at
		FROM supplier_payments
		WHERE store_id = $1 AND supplier_id = $2
		ORDER BY created_at DESC, id
	`, storeID, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier payments: %w", err)
	}
	defer rows.Close()

	out := []core.SupplierPayment{}
	for rows.Next() {
		var p core.SupplierPayment
		if err := rows.Scan(&p.ID, &p.StoreID, &p.SupplierID, &p.Amount, &p.DeductedFromBalance,
			&p.Notes, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ── Customers ─────────────────────────────────────────────────────────────────

const customerColumns = `id, store_id, name, phone, address, due_amount, created_at`

func scanCustomer(row pgx.Row) (*core.Customer, error) {
	var c core.Customer
	if err := row.Scan(&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.Address, &c.DueAmount, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) InsertCustomer(ctx context.Context, c *core.Customer) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO customers (id, store_id, name, phone, address, due_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.StoreID, c.Name, c.Phone, c.Address, c.DueAmount, c.CreatedAt)
	if err != nil {
		return translate(err, notFound("store", c.StoreID))
	}
	return nil
}

func (q *Queries) GetCustomer(ctx context.Context, storeID, id uuid.UUID) (*core.Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE store_id = $1 AND id = $2`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("customer", id))
	}
	return c, nil
}

func (q *Queries) GetCustomerForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE store_id = $1 AND id = $2 FOR UPDATE`, storeID, id))
	if err != nil {
		return nil, translate(err, notFound("customer", id))
	}
	return c, nil
}

func (q *Queries) ListCustomers(ctx context.Context, storeID uuid.UUID) ([]core.Customer, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE store_id = $1 ORDER BY name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	out := []core.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateCustomerDue(ctx context.Context, storeID, id uuid.UUID, due decimal.Decimal) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE customers SET due_amount = $3 WHERE store_id = $1 AND id = $2`, storeID, id, due)
	if err != nil {
		return fmt.Errorf("failed to update customer due: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("customer", id)
	}
	return nil
}
