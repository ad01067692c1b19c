package repository

import (
	"github.com/and161185/crudkeeper/internal/model"
)

// Schema maps a row type to a table. Values and Targets list columns in Columns order.
type Schema[R any] struct {
	Table   string
	Columns []string
	// Values returns the column values of r.
	Values func(r R) []any
	// Targets returns pointers into r, suitable for Scan.
	Targets func(r *R) []any
}

// HasColumn reports whether c belongs to the schema.
func (s Schema[R]) HasColumn(c string) bool {
	for _, col := range s.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// TaskSchema maps model.Task to the tasks table.
var TaskSchema = Schema[model.Task]{
	Table: "tasks",
	Columns: []string{"id", "owner_id", "title", "description", "status", "priority", "due_at",
		"created_at", "updated_at", "deleted_at"},
	Values: func(t model.Task) []any {
		return []any{t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueAt,
			t.CreatedAt, t.UpdatedAt, t.DeletedAt}
	},
	Targets: func(t *model.Task) []any {
		return []any{&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueAt,
			&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt}
	},
}

// CategorySchema maps model.Category to the categories table.
var CategorySchema = Schema[model.Category]{
	Table:   "categories",
	Columns: []string{"id", "org_id", "code", "name", "description", "created_at", "updated_at", "deleted_at"},
	Values: func(c model.Category) []any {
		return []any{c.ID, c.OrgID, c.Code, c.Name, c.Description, c.CreatedAt, c.UpdatedAt, c.DeletedAt}
	},
	Targets: func(c *model.Category) []any {
		return []any{&c.ID, &c.OrgID, &c.Code, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt}
	},
}

// FollowSchema maps model.Follow to the follows table. Hard delete: no deleted_at.
var FollowSchema = Schema[model.Follow]{
	Table:   "follows",
	Columns: []string{"id", "follower_id", "followee_id", "created_at", "updated_at"},
	Values: func(f model.Follow) []any {
		return []any{f.ID, f.FollowerID, f.FolloweeID, f.CreatedAt, f.UpdatedAt}
	},
	Targets: func(f *model.Follow) []any {
		return []any{&f.ID, &f.FollowerID, &f.FolloweeID, &f.CreatedAt, &f.UpdatedAt}
	},
}

// InvoiceSchema maps model.Invoice to the invoices table. Hard delete: no deleted_at.
var InvoiceSchema = Schema[model.Invoice]{
	Table: "invoices",
	Columns: []string{"id", "org_id", "number", "status", "amount_cents", "currency",
		"period_start", "period_end", "issued_at", "created_at", "updated_at"},
	Values: func(i model.Invoice) []any {
		return []any{i.ID, i.OrgID, i.Number, i.Status, i.AmountCents, i.Currency,
			i.PeriodStart, i.PeriodEnd, i.IssuedAt, i.CreatedAt, i.UpdatedAt}
	},
	Targets: func(i *model.Invoice) []any {
		return []any{&i.ID, &i.OrgID, &i.Number, &i.Status, &i.AmountCents, &i.Currency,
			&i.PeriodStart, &i.PeriodEnd, &i.IssuedAt, &i.CreatedAt, &i.UpdatedAt}
	},
}

// UserSchema maps model.User to the users table.
var UserSchema = Schema[model.User]{
	Table: "users",
	Columns: []string{"id", "org_id", "email", "display_name", "role", "pwd_hash",
		"created_at", "updated_at", "deleted_at"},
	Values: func(u model.User) []any {
		return []any{u.ID, u.OrgID, u.Email, u.DisplayName, u.Role, u.PwdHash,
			u.CreatedAt, u.UpdatedAt, u.DeletedAt}
	},
	Targets: func(u *model.User) []any {
		return []any{&u.ID, &u.OrgID, &u.Email, &u.DisplayName, &u.Role, &u.PwdHash,
			&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt}
	},
}

// AuditSchema maps model.AuditEntry to the audit_log table.
var AuditSchema = Schema[model.AuditEntry]{
	Table:   "audit_log",
	Columns: []string{"id", "org_id", "actor_id", "action", "target_type", "target_id", "created_at", "updated_at"},
	Values: func(a model.AuditEntry) []any {
		return []any{a.ID, a.OrgID, a.ActorID, a.Action, a.TargetType, a.TargetID, a.CreatedAt, a.UpdatedAt}
	},
	Targets: func(a *model.AuditEntry) []any {
		return []any{&a.ID, &a.OrgID, &a.ActorID, &a.Action, &a.TargetType, &a.TargetID, &a.CreatedAt, &a.UpdatedAt}
	},
}
