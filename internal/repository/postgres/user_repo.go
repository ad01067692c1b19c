package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. The partial unique index on active emails backs ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, org_id, email, display_name, role, pwd_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.OrgID, u.Email, u.DisplayName, u.Role, u.PwdHash, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user email: %w", errs.ErrAlreadyExists)
	}
	return err
}

// GetByID selects an active user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, org_id, email, display_name, role, pwd_hash, created_at, updated_at
FROM users WHERE id=$1 AND deleted_at IS NULL`
	return r.one(ctx, q, id)
}

// GetByEmail selects an active user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT id, org_id, email, display_name, role, pwd_hash, created_at, updated_at
FROM users WHERE email=$1 AND deleted_at IS NULL`
	return r.one(ctx, q, email)
}

func (r *UserRepo) one(ctx context.Context, q string, arg any) (*model.User, error) {
	row := r.db.Pool.QueryRow(ctx, q, arg)
	var u model.User
	if err := row.Scan(&u.ID, &u.OrgID, &u.Email, &u.DisplayName, &u.Role, &u.PwdHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// OrgRepo implements OrgRepository using PostgreSQL.
type OrgRepo struct{ db *DB }

// NewOrgRepo constructs an organization repository.
func NewOrgRepo(db *DB) *OrgRepo { return &OrgRepo{db: db} }

// Create inserts an organization.
func (r *OrgRepo) Create(ctx context.Context, o *model.Organization) error {
	const q = `INSERT INTO organizations (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, o.ID, o.Name, o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("organization: %w", errs.ErrAlreadyExists)
	}
	return err
}

// GetByID selects an organization.
func (r *OrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	const q = `SELECT id, name, created_at, updated_at FROM organizations WHERE id=$1`
	var o model.Organization
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
