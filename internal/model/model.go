// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is the coarse permission level of an actor.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleMember || r == RoleAdmin }

// Actor is the authenticated identity making a request.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	OrgID uuid.UUID // tenant scope; uuid.Nil for actors without an organization
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Tokens collects issued access/refresh tokens.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time // access token expiry
	RefreshExpiresAt time.Time
}

// Base is the row metadata shared by every persisted entity.
type Base struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // nil while active; always nil for hard-delete entities
}

// Record returns the embedded metadata. It lets generic code reach Base through any row type.
func (b Base) Record() Base { return b }

// Active reports whether the row has not been soft-deleted.
func (b Base) Active() bool { return b.DeletedAt == nil }

// Row is implemented by every entity embedding Base.
type Row interface {
	Record() Base
}

// Organization is a tenant.
type Organization struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents an account. The password is stored only as an encoded argon2id hash.
type User struct {
	Base
	OrgID       uuid.UUID
	Email       string // unique among active users
	DisplayName string
	Role        Role
	PwdHash     string
}

// AuditEntry records who did what to which record. Written best-effort after the primary write.
type AuditEntry struct {
	Base
	OrgID      uuid.UUID
	ActorID    uuid.UUID
	Action     string // "task.create", "invoice.delete", ...
	TargetType string
	TargetID   uuid.UUID
}
