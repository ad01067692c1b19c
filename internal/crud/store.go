// Package crud implements the scoped, paginated CRUD pattern shared by every entity.
//
// An Executor is configured once per entity and composes the actor scope, the filter
// builder, the pagination calculator, the storage backend and the record mapper.
package crud

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

// Store is the storage contract for one table.
// Misses return errs.ErrNotFound; unique violations return errs.ErrAlreadyExists.
type Store[R model.Row] interface {
	// FindMany returns rows matching where, ordered and windowed.
	FindMany(ctx context.Context, where query.Predicate, order query.Order, w pagination.Window) ([]R, error)
	// Count returns the number of rows matching where.
	Count(ctx context.Context, where query.Predicate) (int64, error)
	// FindFirst returns one row matching where.
	FindFirst(ctx context.Context, where query.Predicate) (R, error)
	// Create inserts row.
	Create(ctx context.Context, row R) error
	// Update applies patch to the single row matching where and returns it.
	Update(ctx context.Context, where query.Predicate, patch query.Patch) (R, error)
	// Delete removes the rows matching where; zero rows is ErrNotFound.
	Delete(ctx context.Context, where query.Predicate) error
}

// Auditor records audit entries.
type Auditor interface {
	Record(ctx context.Context, e model.AuditEntry) error
}

// StoreAuditor persists audit entries through a Store.
type StoreAuditor struct {
	store Store[model.AuditEntry]
	now   func() time.Time
}

// NewStoreAuditor constructs an auditor writing to store.
func NewStoreAuditor(store Store[model.AuditEntry]) *StoreAuditor {
	return &StoreAuditor{store: store, now: time.Now}
}

// Record assigns id and timestamps and inserts the entry.
func (a *StoreAuditor) Record(ctx context.Context, e model.AuditEntry) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	now := a.now().UTC().Truncate(time.Millisecond)
	e.Base = model.Base{ID: id, CreatedAt: now, UpdatedAt: now}
	return a.store.Create(ctx, e)
}
