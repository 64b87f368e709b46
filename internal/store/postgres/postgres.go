// Package postgres implements core.Repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digital-ondu/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query code.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs every core.Queries method against a pool or an open transaction.
type Queries struct {
	db dbtx
}

// Repository is the pool-bound Queries that also opens transactions.
type Repository struct {
	pool *pgxpool.Pool
	*Queries
}

var _ core.Repository = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, Queries: &Queries{db: pool}}
}

// InTx begins a transaction, hands fn a Queries bound to it, and commits when fn
// succeeds. Row locks taken by ForUpdate reads are held until then.
func (r *Repository) InTx(ctx context.Context, fn func(q core.Queries) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver errors onto domain errors. notFound is returned for
// pgx.ErrNoRows and foreign key violations.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch {
			case strings.Contains(pgErr.ConstraintName, "sku"):
				return fmt.Errorf("%w: %s", core.ErrDuplicateSKU, pgErr.Detail)
			case strings.Contains(pgErr.ConstraintName, "username"):
				return fmt.Errorf("%w: %s", core.ErrDuplicateUsername, pgErr.Detail)
			}
		case pgForeignKeyViolation:
			return notFound
		}
	}
	return err
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, core.ErrNotFound)
}

// escapeLike escapes ILIKE metacharacters so user search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.clauses, " AND ")
}
