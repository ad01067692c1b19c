package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
	"github.com/and161185/crudkeeper/internal/repository"
)

// Table implements crud.Store for one table described by a schema.
type Table[R model.Row] struct {
	db     *DB
	schema repository.Schema[R]
	cols   columnSet
	list   string // comma-separated column list
}

// NewTable constructs a table store.
func NewTable[R model.Row](db *DB, schema repository.Schema[R]) *Table[R] {
	return &Table[R]{
		db:     db,
		schema: schema,
		cols:   newColumnSet(schema.Columns),
		list:   strings.Join(schema.Columns, ", "),
	}
}

func (t *Table[R]) scan(row pgx.Row) (R, error) {
	var r R
	err := row.Scan(t.schema.Targets(&r)...)
	return r, err
}

// FindMany selects a window of rows matching where.
func (t *Table[R]) FindMany(ctx context.Context, where query.Predicate, order query.Order, w pagination.Window) ([]R, error) {
	var args argList
	cond, err := t.cols.where(where, &args)
	if err != nil {
		return nil, err
	}
	ord, err := t.cols.orderBy(order)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + t.list + " FROM " + t.schema.Table + cond + ord +
		" LIMIT " + args.add(w.Take) + " OFFSET " + args.add(w.Skip)

	rows, err := t.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []R
	for rows.Next() {
		r, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of rows matching where.
func (t *Table[R]) Count(ctx context.Context, where query.Predicate) (int64, error) {
	var args argList
	cond, err := t.cols.where(where, &args)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := t.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+t.schema.Table+cond, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindFirst selects a single row matching where.
func (t *Table[R]) FindFirst(ctx context.Context, where query.Predicate) (R, error) {
	var args argList
	cond, err := t.cols.where(where, &args)
	if err != nil {
		var zero R
		return zero, err
	}
	q := "SELECT " + t.list + " FROM " + t.schema.Table + cond + " LIMIT 1"
	r, err := t.scan(t.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, errs.ErrNotFound
		}
		return r, err
	}
	return r, nil
}

// Create inserts row.
func (t *Table[R]) Create(ctx context.Context, row R) error {
	q := "INSERT INTO " + t.schema.Table + " (" + t.list + ") VALUES (" + placeholders(len(t.schema.Columns)) + ")"
	_, err := t.db.Pool.Exec(ctx, q, t.schema.Values(row)...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", t.schema.Table, errs.ErrAlreadyExists)
	}
	return err
}

// Update applies patch to the row matching where and returns the updated row.
func (t *Table[R]) Update(ctx context.Context, where query.Predicate, patch query.Patch) (R, error) {
	var zero R
	var args argList
	set, err := t.cols.set(patch, &args)
	if err != nil {
		return zero, err
	}
	cond, err := t.cols.where(where, &args)
	if err != nil {
		return zero, err
	}
	if cond == "" {
		return zero, fmt.Errorf("postgres: refusing unconditioned update of %s", t.schema.Table)
	}
	q := "UPDATE " + t.schema.Table + " SET " + set + cond + " RETURNING " + t.list
	r, err := t.scan(t.db.Pool.QueryRow(ctx, q, args...))
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, pgx.ErrNoRows):
		return zero, errs.ErrNotFound
	case isUniqueViolation(err):
		return zero, fmt.Errorf("%s: %w", t.schema.Table, errs.ErrAlreadyExists)
	default:
		return zero, err
	}
}

// Delete removes the rows matching where.
func (t *Table[R]) Delete(ctx context.Context, where query.Predicate) error {
	var args argList
	cond, err := t.cols.where(where, &args)
	if err != nil {
		return err
	}
	if cond == "" {
		return fmt.Errorf("postgres: refusing unconditioned delete from %s", t.schema.Table)
	}
	tag, err := t.db.Pool.Exec(ctx, "DELETE FROM "+t.schema.Table+cond, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
