// Package dto maps persisted rows to the JSON shapes returned to callers.
//
// Timestamps are rendered as ISO-8601 UTC strings with millisecond precision.
// Whether a nullable column appears as null or is omitted is decided per entity by
// the JSON tags below; the choices differ between entities on purpose.
package dto

import (
	"time"

	"github.com/and161185/crudkeeper/internal/model"
)

// ISOLayout is the canonical timestamp layout.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// ISO renders t in UTC with millisecond precision and a Z suffix.
func ISO(t time.Time) string { return t.UTC().Format(ISOLayout) }

// ISOPtr is ISO for optional timestamps.
func ISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ISO(*t)
	return &s
}

// Task: description is nullable (null), due_at is optional (omitted).
type Task struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    int     `json:"priority"`
	DueAt       *string `json:"due_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	DeletedAt   *string `json:"deleted_at"`
}

// TaskFromModel maps a task row.
func TaskFromModel(t model.Task) Task {
	return Task{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    t.Priority,
		DueAt:       ISOPtr(t.DueAt),
		CreatedAt:   ISO(t.CreatedAt),
		UpdatedAt:   ISO(t.UpdatedAt),
		DeletedAt:   ISOPtr(t.DeletedAt),
	}
}

// Category: description and deleted_at are both omitted when empty.
type Category struct {
	ID          string  `json:"id"`
	OrgID       string  `json:"org_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	DeletedAt   *string `json:"deleted_at,omitempty"`
}

// CategoryFromModel maps a category row.
func CategoryFromModel(c model.Category) Category {
	return Category{
		ID:          c.ID.String(),
		OrgID:       c.OrgID.String(),
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   ISO(c.CreatedAt),
		UpdatedAt:   ISO(c.UpdatedAt),
		DeletedAt:   ISOPtr(c.DeletedAt),
	}
}

// Follow carries no nullable fields.
type Follow struct {
	ID         string `json:"id"`
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
	CreatedAt  string `json:"created_at"`
}

// FollowFromModel maps a follow row.
func FollowFromModel(f model.Follow) Follow {
	return Follow{
		ID:         f.ID.String(),
		FollowerID: f.FollowerID.String(),
		FolloweeID: f.FolloweeID.String(),
		CreatedAt:  ISO(f.CreatedAt),
	}
}

// Invoice: issued_at is nullable (null).
type Invoice struct {
	ID          string  `json:"id"`
	OrgID       string  `json:"org_id"`
	Number      string  `json:"number"`
	Status      string  `json:"status"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	IssuedAt    *string `json:"issued_at"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// InvoiceFromModel maps an invoice row.
func InvoiceFromModel(i model.Invoice) Invoice {
	return Invoice{
		ID:          i.ID.String(),
		OrgID:       i.OrgID.String(),
		Number:      i.Number,
		Status:      string(i.Status),
		AmountCents: i.AmountCents,
		Currency:    i.Currency,
		PeriodStart: ISO(i.PeriodStart),
		PeriodEnd:   ISO(i.PeriodEnd),
		IssuedAt:    ISOPtr(i.IssuedAt),
		CreatedAt:   ISO(i.CreatedAt),
		UpdatedAt:   ISO(i.UpdatedAt),
	}
}

// User never exposes the password hash.
type User struct {
	ID          string  `json:"id"`
	OrgID       string  `json:"org_id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	DeletedAt   *string `json:"deleted_at"`
}

// UserFromModel maps a user row.
func UserFromModel(u model.User) User {
	return User{
		ID:          u.ID.String(),
		OrgID:       u.OrgID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   ISO(u.CreatedAt),
		UpdatedAt:   ISO(u.UpdatedAt),
		DeletedAt:   ISOPtr(u.DeletedAt),
	}
}

// AuditEntry is append-only.
type AuditEntry struct {
	ID         string `json:"id"`
	OrgID      string `json:"org_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	CreatedAt  string `json:"created_at"`
}

// AuditEntryFromModel maps an audit row.
func AuditEntryFromModel(a model.AuditEntry) AuditEntry {
	return AuditEntry{
		ID:         a.ID.String(),
		OrgID:      a.OrgID.String(),
		ActorID:    a.ActorID.String(),
		Action:     a.Action,
		TargetType: a.TargetType,
		TargetID:   a.TargetID.String(),
		CreatedAt:  ISO(a.CreatedAt),
	}
}

// Tokens is the login/refresh response.
type Tokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresAt        string `json:"expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}

// TokensFromModel maps issued tokens.
func TokensFromModel(t model.Tokens) Tokens {
	return Tokens{
		AccessToken:      t.AccessToken,
		RefreshToken:     t.RefreshToken,
		ExpiresAt:        ISO(t.ExpiresAt),
		RefreshExpiresAt: ISO(t.RefreshExpiresAt),
	}
}
