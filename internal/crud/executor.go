package crud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

// ScopeMode selects which actor attribute scopes the rows of an entity.
type ScopeMode int

const (
	ScopeOwner  ScopeMode = iota // actor.ID
	ScopeTenant                  // actor.OrgID
)

// Unique describes a uniqueness constraint checked among active rows before insert.
type Unique struct {
	Field string
	Terms []query.Term
}

// Guard is a business-rule check on the loaded row before update or delete.
type Guard[R any] func(row R) error

// Config describes one entity.
type Config[R model.Row, D any] struct {
	Resource    string // "task"; used in errors and audit actions
	Scope       ScopeMode
	ScopeColumn string
	SoftDelete  bool
	// RevealForbidden reports ErrForbidden instead of ErrNotFound when the id exists out of scope.
	RevealForbidden bool
	Pagination      pagination.Policy
	Sorts           query.Sorts
	Immutable       []string // beyond id, created_at, updated_at, deleted_at and the scope column
	Init            func(row *R, base model.Base, scope uuid.UUID)
	ToDTO           func(R) D
	AuditCreate     bool
	AuditDelete     bool
}

// Page is a list response.
type Page[D any] struct {
	Pagination pagination.Summary `json:"pagination"`
	Data       []D                `json:"data"`
}

// ListRequest carries the generic list parameters. Absent page/limit use the endpoint policy.
type ListRequest struct {
	Page           *int   `json:"page"`
	Limit          *int   `json:"limit"`
	Sort           string `json:"sort"`
	Order          string `json:"order"`
	IncludeDeleted bool   `json:"include_deleted"`
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	audit Auditor
	log   *zap.Logger
	now   func() time.Time
}

// WithAuditor enables audit side effects.
func WithAuditor(a Auditor) Option { return func(o *options) { o.audit = a } }

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Executor runs the CRUD operations of one entity.
type Executor[R model.Row, D any] struct {
	cfg   Config[R, D]
	store Store[R]
	audit Auditor
	log   *zap.Logger
	now   func() time.Time
}

// New constructs an Executor.
func New[R model.Row, D any](cfg Config[R, D], store Store[R], opts ...Option) *Executor[R, D] {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor[R, D]{cfg: cfg, store: store, audit: o.audit, log: o.log, now: o.now}
}

// Resource returns the configured resource name.
func (e *Executor[R, D]) Resource() string { return e.cfg.Resource }

// List returns one page of active rows matching filters, within the actor's scope.
func (e *Executor[R, D]) List(ctx context.Context, actor *model.Actor, req ListRequest, filters ...[]query.Term) (Page[D], error) {
	scope, err := e.scope(actor, req.IncludeDeleted)
	if err != nil {
		return Page[D]{}, err
	}
	page, limit := e.cfg.Pagination.Resolve(req.Page, req.Limit)
	win, err := pagination.Paginate(page, limit, e.cfg.Pagination.Indexing)
	if err != nil {
		return Page[D]{}, err
	}
	where := query.Build(scope, filters...)
	order := e.cfg.Sorts.Resolve(req.Sort, req.Order)

	var (
		rows  []R
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.store.Count(gctx, where)
		total = n
		return err
	})
	g.Go(func() error {
		r, err := e.store.FindMany(gctx, where, order, win)
		rows = r
		return err
	})
	if err := g.Wait(); err != nil {
		return Page[D]{}, fmt.Errorf("list %s: %w", e.cfg.Resource, err)
	}

	sum, err := pagination.Summarize(total, page, limit)
	if err != nil {
		return Page[D]{}, err
	}
	data := make([]D, 0, len(rows))
	for _, r := range rows {
		data = append(data, e.cfg.ToDTO(r))
	}
	return Page[D]{Pagination: sum, Data: data}, nil
}

// Find returns the raw row with id within the actor's scope.
func (e *Executor[R, D]) Find(ctx context.Context, actor *model.Actor, id uuid.UUID, includeDeleted bool) (R, error) {
	var zero R
	scope, err := e.scope(actor, includeDeleted)
	if err != nil {
		return zero, err
	}
	row, err := e.store.FindFirst(ctx, query.Build(scope).And(query.ByID(id)))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return zero, e.missing(ctx, scope, id)
		}
		return zero, fmt.Errorf("get %s: %w", e.cfg.Resource, err)
	}
	return row, nil
}

// Get is Find mapped to the DTO.
func (e *Executor[R, D]) Get(ctx context.Context, actor *model.Actor, id uuid.UUID, includeDeleted bool) (D, error) {
	row, err := e.Find(ctx, actor, id, includeDeleted)
	if err != nil {
		var zero D
		return zero, err
	}
	return e.cfg.ToDTO(row), nil
}

// Create checks uniques among active rows, assigns id, timestamps and scope key, and inserts row.
func (e *Executor[R, D]) Create(ctx context.Context, actor *model.Actor, row R, uniques ...Unique) (D, error) {
	var zero D
	if actor == nil {
		return zero, fmt.Errorf("create %s: %w", e.cfg.Resource, errs.ErrUnauthorized)
	}
	key, err := e.scopeKey(actor)
	if err != nil {
		return zero, err
	}
	if err := e.CheckUnique(ctx, uuid.Nil, uniques...); err != nil {
		return zero, fmt.Errorf("create %s: %w", e.cfg.Resource, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return zero, err
	}
	now := e.clock()
	e.cfg.Init(&row, model.Base{ID: id, CreatedAt: now, UpdatedAt: now}, key)
	if err := e.store.Create(ctx, row); err != nil {
		return zero, fmt.Errorf("create %s: %w", e.cfg.Resource, err)
	}
	if e.cfg.AuditCreate {
		e.record(ctx, actor, "create", id)
	}
	return e.cfg.ToDTO(row), nil
}

// CheckUnique fails with ErrAlreadyExists when an active row other than except satisfies any of uniques.
func (e *Executor[R, D]) CheckUnique(ctx context.Context, except uuid.UUID, uniques ...Unique) error {
	for _, u := range uniques {
		rows, err := e.store.FindMany(ctx, query.Build(query.Scope{SoftDelete: e.cfg.SoftDelete}, u.Terms),
			query.Order{Column: "id"}, pagination.Window{Take: 2})
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Record().ID != except {
				return fmt.Errorf("%s %w", u.Field, errs.ErrAlreadyExists)
			}
		}
	}
	return nil
}

// Update applies patch to the active scoped row. Columns absent from patch are untouched.
func (e *Executor[R, D]) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, patch query.Patch, guards ...Guard[R]) (D, error) {
	var zero D
	for _, s := range patch {
		if e.immutable(s.Column) {
			return zero, errs.Invalid(s.Column, "immutable")
		}
	}
	current, err := e.Find(ctx, actor, id, false)
	if err != nil {
		return zero, err
	}
	for _, g := range guards {
		if err := g(current); err != nil {
			return zero, err
		}
	}

	// updated_at must move forward even when the clock has not.
	prev := current.Record().UpdatedAt
	now := e.clock()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}

	scope, err := e.scope(actor, false)
	if err != nil {
		return zero, err
	}
	row, err := e.store.Update(ctx, query.Build(scope).And(query.ByID(id)), patch.With("updated_at", now))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return zero, fmt.Errorf("update %s %s: %w", e.cfg.Resource, id, errs.ErrNotFound)
		}
		return zero, fmt.Errorf("update %s: %w", e.cfg.Resource, err)
	}
	return e.cfg.ToDTO(row), nil
}

// Delete soft- or hard-deletes the active scoped row. Deleting twice fails with ErrNotFound.
func (e *Executor[R, D]) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID, guards ...Guard[R]) error {
	current, err := e.Find(ctx, actor, id, false)
	if err != nil {
		return err
	}
	for _, g := range guards {
		if err := g(current); err != nil {
			return err
		}
	}
	scope, err := e.scope(actor, false)
	if err != nil {
		return err
	}
	where := query.Build(scope).And(query.ByID(id))

	if e.cfg.SoftDelete {
		now := e.clock()
		if prev := current.Record().UpdatedAt; !now.After(prev) {
			now = prev.Add(time.Millisecond)
		}
		_, err = e.store.Update(ctx, where, query.Patch{
			{Column: query.DeletedAtColumn, Value: now},
			{Column: "updated_at", Value: now},
		})
	} else {
		err = e.store.Delete(ctx, where)
	}
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("delete %s %s: %w", e.cfg.Resource, id, errs.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", e.cfg.Resource, err)
	}
	if e.cfg.AuditDelete {
		e.record(ctx, actor, "delete", id)
	}
	return nil
}

func (e *Executor[R, D]) scope(actor *model.Actor, includeDeleted bool) (query.Scope, error) {
	if actor == nil {
		return query.Scope{}, fmt.Errorf("%s: %w", e.cfg.Resource, errs.ErrUnauthorized)
	}
	// hard-deleted rows leave nothing behind to include
	if !e.cfg.SoftDelete {
		includeDeleted = false
	}
	if includeDeleted && !actor.IsAdmin() {
		return query.Scope{}, fmt.Errorf("%s: deleted records require admin: %w", e.cfg.Resource, errs.ErrForbidden)
	}
	key, err := e.scopeKey(actor)
	if err != nil {
		return query.Scope{}, err
	}
	return query.Scope{
		Column:         e.cfg.ScopeColumn,
		Value:          key,
		SoftDelete:     e.cfg.SoftDelete,
		IncludeDeleted: includeDeleted,
	}, nil
}

func (e *Executor[R, D]) scopeKey(actor *model.Actor) (uuid.UUID, error) {
	if e.cfg.Scope == ScopeTenant {
		if actor.OrgID == uuid.Nil {
			return uuid.Nil, fmt.Errorf("%s: actor has no organization: %w", e.cfg.Resource, errs.ErrForbidden)
		}
		return actor.OrgID, nil
	}
	return actor.ID, nil
}

// missing decides between not-found and forbidden for a scoped miss.
func (e *Executor[R, D]) missing(ctx context.Context, scope query.Scope, id uuid.UUID) error {
	notFound := fmt.Errorf("%s %s: %w", e.cfg.Resource, id, errs.ErrNotFound)
	if !e.cfg.RevealForbidden {
		return notFound
	}
	unscoped := query.Scope{SoftDelete: scope.SoftDelete, IncludeDeleted: scope.IncludeDeleted}
	if _, err := e.store.FindFirst(ctx, query.Build(unscoped).And(query.ByID(id))); err == nil {
		return fmt.Errorf("%s %s: %w", e.cfg.Resource, id, errs.ErrForbidden)
	}
	return notFound
}

func (e *Executor[R, D]) immutable(column string) bool {
	switch column {
	case "id", "created_at", "updated_at", query.DeletedAtColumn, e.cfg.ScopeColumn:
		return true
	}
	for _, c := range e.cfg.Immutable {
		if c == column {
			return true
		}
	}
	return false
}

func (e *Executor[R, D]) clock() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// record writes an audit entry; failures are logged and never fail the primary operation.
func (e *Executor[R, D]) record(ctx context.Context, actor *model.Actor, action string, target uuid.UUID) {
	if e.audit == nil {
		return
	}
	entry := model.AuditEntry{
		OrgID:      actor.OrgID,
		ActorID:    actor.ID,
		Action:     e.cfg.Resource + "." + action,
		TargetType: e.cfg.Resource,
		TargetID:   target,
	}
	if err := e.audit.Record(ctx, entry); err != nil {
		e.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.Stringer("target", target),
			zap.Stringer("actor", actor.ID),
			zap.Error(err),
		)
	}
}
