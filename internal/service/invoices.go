package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// InvoiceSearch filters the tenant's invoices.
type InvoiceSearch struct {
	crud.ListRequest
	Number     *string              `json:"number"`
	Status     *model.InvoiceStatus `json:"status"`
	Currency   *string              `json:"currency"`
	AmountMin  *int                 `json:"amount_min"`
	AmountMax  *int                 `json:"amount_max"`
	IssuedFrom *time.Time           `json:"issued_from"`
	IssuedTo   *time.Time           `json:"issued_to"`
}

// InvoiceCreate is the body of a create request. New invoices start as drafts.
type InvoiceCreate struct {
	Number      string    `json:"number"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// InvoiceUpdate is the body of an update request.
type InvoiceUpdate struct {
	Number      query.Optional[string]              `json:"number"`
	AmountCents query.Optional[int64]               `json:"amount_cents"`
	Currency    query.Optional[string]              `json:"currency"`
	PeriodStart query.Optional[time.Time]           `json:"period_start"`
	PeriodEnd   query.Optional[time.Time]           `json:"period_end"`
	Status      query.Optional[model.InvoiceStatus] `json:"status"`
}

// InvoiceService manages tenant invoices. Only drafts may be deleted and paid or void invoices are frozen.
type InvoiceService struct {
	ex  *crud.Executor[model.Invoice, dto.Invoice]
	now func() time.Time
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(store crud.Store[model.Invoice], opts ...crud.Option) *InvoiceService {
	return &InvoiceService{now: time.Now, ex: crud.New(crud.Config[model.Invoice, dto.Invoice]{
		Resource:    "invoice",
		Scope:       crud.ScopeTenant,
		ScopeColumn: "org_id",
		Pagination:  pagination.Policy{Indexing: pagination.OneBased, DefaultLimit: 10},
		Sorts: query.Sorts{Allowed: map[string]string{
			"created_at":   "created_at",
			"number":       "number",
			"amount_cents": "amount_cents",
			"period_start": "period_start",
			"issued_at":    "issued_at",
		}},
		Init: func(i *model.Invoice, b model.Base, org uuid.UUID) {
			i.Base = b
			i.OrgID = org
			i.Status = model.InvoiceDraft
		},
		ToDTO:       dto.InvoiceFromModel,
		AuditCreate: true,
		AuditDelete: true,
	}, store, opts...)}
}

// List returns a page of invoices.
func (s *InvoiceService) List(ctx context.Context, actor *model.Actor, in InvoiceSearch) (crud.Page[dto.Invoice], error) {
	if in.Status != nil && !in.Status.Valid() {
		return crud.Page[dto.Invoice]{}, errs.Invalid("status", "unknown")
	}
	return s.ex.List(ctx, actor, in.ListRequest,
		query.Contains("number", in.Number, true),
		query.Eq("status", in.Status),
		query.Eq("currency", in.Currency),
		query.IntRange("amount_cents", in.AmountMin, in.AmountMax),
		query.Range("issued_at", in.IssuedFrom, in.IssuedTo),
	)
}

// Get returns one invoice.
func (s *InvoiceService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (dto.Invoice, error) {
	return s.ex.Get(ctx, actor, id, false)
}

// Create inserts a draft invoice; numbers are unique per tenant.
func (s *InvoiceService) Create(ctx context.Context, actor *model.Actor, in InvoiceCreate) (dto.Invoice, error) {
	if actor == nil {
		return dto.Invoice{}, fmt.Errorf("invoice: %w", errs.ErrUnauthorized)
	}
	number, err := text("number", in.Number, 64)
	if err != nil {
		return dto.Invoice{}, err
	}
	if in.AmountCents < 0 {
		return dto.Invoice{}, errs.Invalid("amount_cents", "must not be negative")
	}
	if !currencyRe.MatchString(in.Currency) {
		return dto.Invoice{}, errs.Invalid("currency", "must be an ISO 4217 code")
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return dto.Invoice{}, errs.Invalid("period", "start and end are required")
	}
	if in.PeriodStart.After(in.PeriodEnd) {
		return dto.Invoice{}, errs.Invalid("period_start", "must not be after period_end")
	}
	return s.ex.Create(ctx, actor, model.Invoice{
		Number:      number,
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
		PeriodStart: in.PeriodStart.UTC(),
		PeriodEnd:   in.PeriodEnd.UTC(),
	}, numberUnique(actor.OrgID, number))
}

// Update applies the fields present in in and performs status transitions.
func (s *InvoiceService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, in InvoiceUpdate) (dto.Invoice, error) {
	if actor == nil {
		return dto.Invoice{}, fmt.Errorf("invoice: %w", errs.ErrUnauthorized)
	}
	var p query.Patch
	if v, ok := in.Number.Get(); ok {
		number, err := text("number", v, 64)
		if err != nil {
			return dto.Invoice{}, err
		}
		in.Number.Value = number
		if err := s.ex.CheckUnique(ctx, id, numberUnique(actor.OrgID, number)); err != nil {
			return dto.Invoice{}, err
		}
	}
	if v, ok := in.AmountCents.Get(); ok && v < 0 {
		return dto.Invoice{}, errs.Invalid("amount_cents", "must not be negative")
	}
	if v, ok := in.Currency.Get(); ok && !currencyRe.MatchString(v) {
		return dto.Invoice{}, errs.Invalid("currency", "must be an ISO 4217 code")
	}
	next, moving := in.Status.Get()
	if moving && !next.Valid() {
		return dto.Invoice{}, errs.Invalid("status", "unknown")
	}
	for _, err := range []error{
		query.Apply(&p, "number", in.Number, false),
		query.Apply(&p, "amount_cents", in.AmountCents, false),
		query.Apply(&p, "currency", in.Currency, false),
		query.Apply(&p, "period_start", utcOpt(in.PeriodStart), false),
		query.Apply(&p, "period_end", utcOpt(in.PeriodEnd), false),
		query.Apply(&p, "status", in.Status, false),
	} {
		if err != nil {
			return dto.Invoice{}, err
		}
	}
	if len(p) == 0 {
		return dto.Invoice{}, errs.Invalid("body", "nothing to update")
	}
	// issued_at is stamped once, on the transition into issued
	if moving && next == model.InvoiceIssued {
		cur, err := s.ex.Find(ctx, actor, id, false)
		if err != nil {
			return dto.Invoice{}, err
		}
		if cur.Status != model.InvoiceIssued {
			p = append(p, query.Set{Column: "issued_at", Value: s.now().UTC().Truncate(time.Millisecond)})
		}
	}

	guard := func(cur model.Invoice) error {
		if cur.Status.Final() {
			return fmt.Errorf("%w: invoice is %s", errs.ErrBusinessRule, cur.Status)
		}
		if moving && next != cur.Status && !cur.Status.CanBecome(next) {
			return fmt.Errorf("%w: invoice cannot go from %s to %s", errs.ErrBusinessRule, cur.Status, next)
		}
		start, end := cur.PeriodStart, cur.PeriodEnd
		if v, ok := in.PeriodStart.Get(); ok {
			start = v
		}
		if v, ok := in.PeriodEnd.Get(); ok {
			end = v
		}
		if start.After(end) {
			return errs.Invalid("period_start", "must not be after period_end")
		}
		return nil
	}
	return s.ex.Update(ctx, actor, id, p, guard)
}

// Delete removes a draft invoice.
func (s *InvoiceService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	return s.ex.Delete(ctx, actor, id, func(cur model.Invoice) error {
		if cur.Status != model.InvoiceDraft {
			return fmt.Errorf("%w: only draft invoices can be deleted", errs.ErrBusinessRule)
		}
		return nil
	})
}

func numberUnique(org uuid.UUID, number string) crud.Unique {
	return crud.Unique{Field: "number", Terms: []query.Term{
		{Column: "org_id", Op: query.OpEq, Value: org},
		{Column: "number", Op: query.OpEq, Value: number},
	}}
}

func utcOpt(o query.Optional[time.Time]) query.Optional[time.Time] {
	if v, ok := o.Get(); ok {
		o.Value = v.UTC()
	}
	return o
}
