// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/crudkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides account lookups used by authentication.
type UserRepository interface {
	// Create inserts a new user; a duplicate active email is errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads an active user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads an active user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// OrgRepository provides access to tenants.
type OrgRepository interface {
	// Create inserts a new organization.
	Create(ctx context.Context, o *model.Organization) error
	// GetByID loads an organization by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
}
