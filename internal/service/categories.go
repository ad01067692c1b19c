package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

// CategorySearch filters the tenant's categories.
type CategorySearch struct {
	crud.ListRequest
	Name           *string `json:"name"`
	Code           *string `json:"code"`
	HasDescription *bool   `json:"has_description"`
}

// CategoryCreate is the body of a create request.
type CategoryCreate struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryUpdate is the body of an update request.
type CategoryUpdate struct {
	Code        query.Optional[string] `json:"code"`
	Name        query.Optional[string] `json:"name"`
	Description query.Optional[string] `json:"description"`
}

// CategoryService manages the tenant catalogue. Members read, admins write.
type CategoryService struct {
	ex *crud.Executor[model.Category, dto.Category]
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(store crud.Store[model.Category], opts ...crud.Option) *CategoryService {
	return &CategoryService{ex: crud.New(crud.Config[model.Category, dto.Category]{
		Resource:        "category",
		Scope:           crud.ScopeTenant,
		ScopeColumn:     "org_id",
		SoftDelete:      true,
		RevealForbidden: true,
		Pagination:      pagination.Policy{Indexing: pagination.ZeroBased, DefaultLimit: 10},
		Sorts: query.Sorts{Allowed: map[string]string{
			"created_at": "created_at",
			"name":       "name",
			"code":       "code",
		}},
		Init: func(c *model.Category, b model.Base, org uuid.UUID) {
			c.Base = b
			c.OrgID = org
		},
		ToDTO:       dto.CategoryFromModel,
		AuditCreate: true,
		AuditDelete: true,
	}, store, opts...)}
}

// List returns a page of categories. Pages start at 0.
func (s *CategoryService) List(ctx context.Context, actor *model.Actor, in CategorySearch) (crud.Page[dto.Category], error) {
	return s.ex.List(ctx, actor, in.ListRequest,
		query.Contains("name", in.Name, false),
		query.Eq("code", in.Code),
		query.Null("description", negate(in.HasDescription)),
	)
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID, includeDeleted bool) (dto.Category, error) {
	return s.ex.Get(ctx, actor, id, includeDeleted)
}

// Create inserts a category; codes are unique among the tenant's active categories.
func (s *CategoryService) Create(ctx context.Context, actor *model.Actor, in CategoryCreate) (dto.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return dto.Category{}, err
	}
	code, err := text("code", in.Code, 64)
	if err != nil {
		return dto.Category{}, err
	}
	name, err := text("name", in.Name, 200)
	if err != nil {
		return dto.Category{}, err
	}
	return s.ex.Create(ctx, actor, model.Category{Code: code, Name: name, Description: in.Description},
		codeUnique(actor.OrgID, code))
}

// Update applies the fields present in in.
func (s *CategoryService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, in CategoryUpdate) (dto.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return dto.Category{}, err
	}
	var p query.Patch
	if v, ok := in.Code.Get(); ok {
		code, err := text("code", v, 64)
		if err != nil {
			return dto.Category{}, err
		}
		in.Code.Value = code
		if err := s.ex.CheckUnique(ctx, id, codeUnique(actor.OrgID, code)); err != nil {
			return dto.Category{}, err
		}
	}
	if v, ok := in.Name.Get(); ok {
		name, err := text("name", v, 200)
		if err != nil {
			return dto.Category{}, err
		}
		in.Name.Value = name
	}
	for _, err := range []error{
		query.Apply(&p, "code", in.Code, false),
		query.Apply(&p, "name", in.Name, false),
		query.Apply(&p, "description", in.Description, true),
	} {
		if err != nil {
			return dto.Category{}, err
		}
	}
	if len(p) == 0 {
		return dto.Category{}, errs.Invalid("body", "nothing to update")
	}
	return s.ex.Update(ctx, actor, id, p)
}

// Delete soft-deletes a category.
func (s *CategoryService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.ex.Delete(ctx, actor, id)
}

func codeUnique(org uuid.UUID, code string) crud.Unique {
	return crud.Unique{Field: "code", Terms: []query.Term{
		{Column: "org_id", Op: query.OpEq, Value: org},
		{Column: "code", Op: query.OpEq, Value: code},
	}}
}
