package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/query"
)

// UserRepo implements repository.UserRepository on top of a user Table,
// so that admin listings through the same table observe registrations.
type UserRepo struct {
	mu    sync.Mutex // serializes the email check with the insert
	users *Table[model.User]
}

// NewUserRepo wraps users.
func NewUserRepo(users *Table[model.User]) *UserRepo { return &UserRepo{users: users} }

// Create inserts u unless an active user already holds its email.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.users.Count(ctx, r.active(query.Term{Column: "email", Op: query.OpEq, Value: u.Email}))
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("user email: %w", errs.ErrAlreadyExists)
	}
	return r.users.Create(ctx, *u)
}

// GetByID loads an active user.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := r.users.FindFirst(ctx, r.active(query.ByID(id)))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail loads an active user.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.users.FindFirst(ctx, r.active(query.Term{Column: "email", Op: query.OpEq, Value: email}))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) active(t query.Term) query.Predicate {
	return query.Build(query.Scope{SoftDelete: true}).And(t)
}

// OrgRepo implements repository.OrgRepository.
type OrgRepo struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]model.Organization
}

// NewOrgRepo constructs an empty organization store.
func NewOrgRepo() *OrgRepo { return &OrgRepo{orgs: make(map[uuid.UUID]model.Organization)} }

// Create stores o. Names are unique, case-insensitively.
func (r *OrgRepo) Create(_ context.Context, o *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[o.ID]; ok {
		return fmt.Errorf("organization: %w", errs.ErrAlreadyExists)
	}
	for _, existing := range r.orgs {
		if strings.EqualFold(existing.Name, o.Name) {
			return fmt.Errorf("organization: %w", errs.ErrAlreadyExists)
		}
	}
	r.orgs[o.ID] = *o
	return nil
}

// GetByID loads an organization.
func (r *OrgRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &o, nil
}
