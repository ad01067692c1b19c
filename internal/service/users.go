package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

// UserSearch filters the members of the caller's organization.
type UserSearch struct {
	crud.ListRequest
	Email *string     `json:"email"`
	Role  *model.Role `json:"role"`
}

// UserUpdate is the body of an update request.
type UserUpdate struct {
	DisplayName query.Optional[string]     `json:"display_name"`
	Role        query.Optional[model.Role] `json:"role"`
}

// UserService administers accounts within a tenant.
type UserService struct {
	ex *crud.Executor[model.User, dto.User]
}

// NewUserService constructs a UserService.
func NewUserService(store crud.Store[model.User], opts ...crud.Option) *UserService {
	return &UserService{ex: crud.New(crud.Config[model.User, dto.User]{
		Resource:    "user",
		Scope:       crud.ScopeTenant,
		ScopeColumn: "org_id",
		SoftDelete:  true,
		Pagination:  pagination.Policy{Indexing: pagination.OneBased, DefaultLimit: 25},
		Sorts: query.Sorts{Allowed: map[string]string{
			"created_at":   "created_at",
			"email":        "email",
			"display_name": "display_name",
		}},
		Immutable: []string{"email", "pwd_hash"},
		Init: func(u *model.User, b model.Base, org uuid.UUID) {
			u.Base = b
			u.OrgID = org
		},
		ToDTO:       dto.UserFromModel,
		AuditDelete: true,
	}, store, opts...)}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, actor *model.Actor, in UserSearch) (crud.Page[dto.User], error) {
	if in.Role != nil && !in.Role.Valid() {
		return crud.Page[dto.User]{}, errs.Invalid("role", "unknown")
	}
	return s.ex.List(ctx, actor, in.ListRequest,
		query.Contains("email", in.Email, true),
		query.Eq("role", in.Role),
	)
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID, includeDeleted bool) (dto.User, error) {
	return s.ex.Get(ctx, actor, id, includeDeleted)
}

// Update changes a display name (own account, or any as admin) or a role (admin only).
func (s *UserService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, in UserUpdate) (dto.User, error) {
	if actor == nil {
		return dto.User{}, fmt.Errorf("user: %w", errs.ErrUnauthorized)
	}
	var p query.Patch
	if v, ok := in.DisplayName.Get(); ok {
		name, err := text("display_name", v, 100)
		if err != nil {
			return dto.User{}, err
		}
		in.DisplayName.Value = name
	}
	if v, ok := in.Role.Get(); ok {
		if err := requireAdmin(actor); err != nil {
			return dto.User{}, err
		}
		if !v.Valid() {
			return dto.User{}, errs.Invalid("role", "unknown")
		}
		if id == actor.ID && v != model.RoleAdmin {
			return dto.User{}, fmt.Errorf("%w: admins cannot demote themselves", errs.ErrBusinessRule)
		}
	}
	for _, err := range []error{
		query.Apply(&p, "display_name", in.DisplayName, false),
		query.Apply(&p, "role", in.Role, false),
	} {
		if err != nil {
			return dto.User{}, err
		}
	}
	if len(p) == 0 {
		return dto.User{}, errs.Invalid("body", "nothing to update")
	}
	return s.ex.Update(ctx, actor, id, p, func(u model.User) error {
		if !actor.IsAdmin() && u.ID != actor.ID {
			return fmt.Errorf("%w: members may only edit their own account", errs.ErrForbidden)
		}
		return nil
	})
}

// Delete deactivates a user. Admin only; an admin cannot deactivate themselves.
func (s *UserService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return fmt.Errorf("%w: cannot deactivate your own account", errs.ErrBusinessRule)
	}
	return s.ex.Delete(ctx, actor, id)
}
