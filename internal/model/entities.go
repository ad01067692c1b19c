package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Task is a personal work item owned by a single user. Soft-deleted.
type Task struct {
	Base
	OwnerID     uuid.UUID
	Title       string
	Description *string
	Status      TaskStatus
	Priority    int
	DueAt       *time.Time
}

// Category is an organization-wide catalogue entry. Code is unique per organization among active rows.
type Category struct {
	Base
	OrgID       uuid.UUID
	Code        string
	Name        string
	Description *string
}

// Follow is a directed relationship between two users. Hard-deleted.
type Follow struct {
	Base
	FollowerID uuid.UUID
	FolloweeID uuid.UUID
}

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceIssued, InvoicePaid, InvoiceVoid:
		return true
	}
	return false
}

// Final reports whether the invoice can no longer change.
func (s InvoiceStatus) Final() bool { return s == InvoicePaid || s == InvoiceVoid }

// CanBecome reports whether s may transition to next.
// draft -> issued|void, issued -> paid|void; final states never move.
func (s InvoiceStatus) CanBecome(next InvoiceStatus) bool {
	switch s {
	case InvoiceDraft:
		return next == InvoiceIssued || next == InvoiceVoid
	case InvoiceIssued:
		return next == InvoicePaid || next == InvoiceVoid
	}
	return false
}

// Invoice belongs to an organization. Hard-deleted, only while in draft.
type Invoice struct {
	Base
	OrgID       uuid.UUID
	Number      string
	Status      InvoiceStatus
	AmountCents int64
	Currency    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	IssuedAt    *time.Time
}
