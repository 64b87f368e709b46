package postgres

import (
	"context"
	"fmt"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const storeColumns = `id, name, currency, invoice_prefix, settings, created_at`

func scanStore(row pgx.Row) (*core.Store, error) {
	var s core.Store
	if err := row.Scan(&s.ID, &s.Name, &s.Currency, &s.InvoicePrefix, &s.Settings, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (q *Queries) InsertStore(ctx context.Context, s *core.Store) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO stores (id, name, currency, invoice_prefix, settings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Name, s.Currency, s.InvoicePrefix, s.Settings, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert store: %w", err)
	}
	return nil
}

func (q *Queries) GetStore(ctx context.Context, id uuid.UUID) (*core.Store, error) {
	s, err := scanStore(q.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, notFound("store", id))
	}
	return s, nil
}

func (q *Queries) ListStores(ctx context.Context) ([]core.Store, error) {
	rows, err := q.db.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	out := []core.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateStoreSettings(ctx context.Context, id uuid.UUID, settings core.StoreSettings) error {
	tag, err := q.db.Exec(ctx, `UPDATE stores SET settings = $2 WHERE id = $1`, id, settings)
	if err != nil {
		return fmt.Errorf("failed to update store settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("store", id)
	}
	return nil
}

const userColumns = `id, store_id, username, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.StoreID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *Queries) InsertUser(ctx context.Context, u *core.User) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO users (id, store_id, username, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.StoreID, u.Username, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt)
	if err != nil {
		return translate(err, notFound("store", u.StoreID))
	}
	return nil
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, notFound("user", id))
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, translate(err, notFound("user", username))
	}
	return u, nil
}
