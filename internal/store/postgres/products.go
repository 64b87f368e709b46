package postgres

import (
	"context"
	"fmt"
	"strings"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, store_id, name, sku, category, brand, unit, purchase_cost, sale_price,
	current_stock, low_stock_threshold, warranty_months, is_active, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*core.Product, error) {
	var p core.Product
	err := row.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.SKU, &p.Category, &p.Brand, &p.Unit, &p.PurchaseCost, &p.SalePrice,
		&p.CurrentStock, &p.LowStockThreshold, &p.WarrantyMonths, &p.IsActive, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func productNotFound(id any) error {
	return fmt.Errorf("%w: %v", core.ErrProductNotFound, id)
}

func (q *Queries) InsertProduct(ctx context.Context, p *core.Product) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO products (id, store_id, name, sku, category, brand, unit, purchase_cost, sale_price,
			current_stock, low_stock_threshold, warranty_months, is_active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, p.ID, p.StoreID, p.Name, p.SKU, p.Category, p.Brand, p.Unit, p.PurchaseCost, p.SalePrice,
		p.CurrentStock, p.LowStockThreshold, p.WarrantyMonths, p.IsActive, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translate(err, notFound("store", p.StoreID))
	}
	return nil
}

func (q *Queries) GetProduct(ctx context.Context, storeID, id uuid.UUID) (*core.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = $1 AND id = $2`, storeID, id))
	if err != nil {
		return nil, translate(err, productNotFound(id))
	}
	return p, nil
}

func (q *Queries) GetProductForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = $1 AND id = $2 FOR UPDATE`, storeID, id))
	if err != nil {
		return nil, translate(err, productNotFound(id))
	}
	return p, nil
}

func (q *Queries) GetProductBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*core.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = $1 AND sku = $2 AND sku <> ''`, storeID, sku))
	if err != nil {
		return nil, translate(err, productNotFound("sku "+sku))
	}
	return p, nil
}

func (q *Queries) ListProducts(ctx context.Context, storeID uuid.UUID, f core.ProductFilter) ([]core.Product, error) {
	w := &whereBuilder{}
	w.add("store_id = ?", storeID)
	if !f.IncludeInactive {
		w.clauses = append(w.clauses, "is_active")
	}
	if f.Category != "" {
		w.add("lower(category) = lower(?)", f.Category)
	}
	if f.LowStockOnly {
		w.clauses = append(w.clauses, "current_stock <= low_stock_threshold")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("(name ILIKE ? OR sku ILIKE ? OR brand ILIKE ?)", "%"+escapeLike(s)+"%")
	}

	rows, err := q.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+w.sql()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := []core.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateProduct is a compare-and-set on version: the row is written only if no
// other writer has bumped the version since p was read.
func (q *Queries) UpdateProduct(ctx context.Context, p *core.Product) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET name = $3, sku = $4, category = $5, brand = $6, unit = $7,
		    purchase_cost = $8, sale_price = $9, current_stock = $10,
		    low_stock_threshold = $11, warranty_months = $12, is_active = $13,
		    updated_at = $14, version = version + 1
		WHERE store_id = $1 AND id = $2 AND version = $15
	`, p.StoreID, p.ID, p.Name, p.SKU, p.Category, p.Brand, p.Unit,
		p.PurchaseCost, p.SalePrice, p.CurrentStock,
		p.LowStockThreshold, p.WarrantyMonths, p.IsActive,
		p.UpdatedAt, p.Version)
	if err != nil {
		return translate(err, productNotFound(p.ID))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE store_id = $1 AND id = $2)`, p.StoreID, p.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return productNotFound(p.ID)
		}
		return fmt.Errorf("%w: product %s", core.ErrConcurrentModification, p.Name)
	}
	p.Version++
	return nil
}
