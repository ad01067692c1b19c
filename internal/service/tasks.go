package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

const maxPriority = 5

// TaskSearch filters the caller's tasks.
type TaskSearch struct {
	crud.ListRequest
	Title    *string           `json:"title"`
	Status   *model.TaskStatus `json:"status"`
	Priority *int              `json:"priority"`
	DueFrom  *time.Time        `json:"due_from"`
	DueTo    *time.Time        `json:"due_to"`
	HasDue   *bool             `json:"has_due"`
}

// TaskCreate is the body of a create request.
type TaskCreate struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      model.TaskStatus `json:"status"`
	Priority    int              `json:"priority"`
	DueAt       *time.Time       `json:"due_at"`
}

// TaskUpdate is the body of an update request; absent fields are left unchanged.
type TaskUpdate struct {
	Title       query.Optional[string]           `json:"title"`
	Description query.Optional[string]           `json:"description"`
	Status      query.Optional[model.TaskStatus] `json:"status"`
	Priority    query.Optional[int]              `json:"priority"`
	DueAt       query.Optional[time.Time]        `json:"due_at"`
}

// TaskService manages personal tasks, scoped to their owner and soft-deleted.
type TaskService struct {
	ex *crud.Executor[model.Task, dto.Task]
}

// NewTaskService constructs a TaskService.
func NewTaskService(store crud.Store[model.Task], opts ...crud.Option) *TaskService {
	return &TaskService{ex: crud.New(crud.Config[model.Task, dto.Task]{
		Resource:    "task",
		Scope:       crud.ScopeOwner,
		ScopeColumn: "owner_id",
		SoftDelete:  true,
		Pagination:  pagination.Policy{Indexing: pagination.OneBased, DefaultLimit: 10},
		Sorts: query.Sorts{Allowed: map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
			"title":      "title",
			"priority":   "priority",
			"due_at":     "due_at",
		}},
		Init: func(t *model.Task, b model.Base, owner uuid.UUID) {
			t.Base = b
			t.OwnerID = owner
		},
		ToDTO: dto.TaskFromModel,
	}, store, opts...)}
}

// List returns a page of the caller's tasks.
func (s *TaskService) List(ctx context.Context, actor *model.Actor, in TaskSearch) (crud.Page[dto.Task], error) {
	if in.Status != nil && !in.Status.Valid() {
		return crud.Page[dto.Task]{}, errs.Invalid("status", "unknown")
	}
	return s.ex.List(ctx, actor, in.ListRequest,
		query.Contains("title", in.Title, true),
		query.Eq("status", in.Status),
		query.Eq("priority", in.Priority),
		query.Range("due_at", in.DueFrom, in.DueTo),
		query.Null("due_at", negate(in.HasDue)),
	)
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID, includeDeleted bool) (dto.Task, error) {
	return s.ex.Get(ctx, actor, id, includeDeleted)
}

// Create validates and inserts a task owned by the caller.
func (s *TaskService) Create(ctx context.Context, actor *model.Actor, in TaskCreate) (dto.Task, error) {
	if actor == nil {
		return dto.Task{}, fmt.Errorf("task: %w", errs.ErrUnauthorized)
	}
	title, err := text("title", in.Title, 200)
	if err != nil {
		return dto.Task{}, err
	}
	if in.Status == "" {
		in.Status = model.TaskTodo
	}
	if !in.Status.Valid() {
		return dto.Task{}, errs.Invalid("status", "unknown")
	}
	if in.Priority < 0 || in.Priority > maxPriority {
		return dto.Task{}, errs.Invalid("priority", "out of range")
	}
	return s.ex.Create(ctx, actor, model.Task{
		Title:       title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueAt:       utcPtr(in.DueAt),
	})
}

// Update applies the fields present in in.
func (s *TaskService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, in TaskUpdate) (dto.Task, error) {
	if actor == nil {
		return dto.Task{}, fmt.Errorf("task: %w", errs.ErrUnauthorized)
	}
	var p query.Patch
	if v, ok := in.Title.Get(); ok {
		title, err := text("title", v, 200)
		if err != nil {
			return dto.Task{}, err
		}
		in.Title.Value = title
	}
	if v, ok := in.Status.Get(); ok && !v.Valid() {
		return dto.Task{}, errs.Invalid("status", "unknown")
	}
	if v, ok := in.Priority.Get(); ok && (v < 0 || v > maxPriority) {
		return dto.Task{}, errs.Invalid("priority", "out of range")
	}
	if v, ok := in.DueAt.Get(); ok {
		in.DueAt.Value = v.UTC()
	}
	for _, err := range []error{
		query.Apply(&p, "title", in.Title, false),
		query.Apply(&p, "description", in.Description, true),
		query.Apply(&p, "status", in.Status, false),
		query.Apply(&p, "priority", in.Priority, false),
		query.Apply(&p, "due_at", in.DueAt, true),
	} {
		if err != nil {
			return dto.Task{}, err
		}
	}
	if len(p) == 0 {
		return dto.Task{}, errs.Invalid("body", "nothing to update")
	}
	return s.ex.Update(ctx, actor, id, p)
}

// Delete soft-deletes a task.
func (s *TaskService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	return s.ex.Delete(ctx, actor, id)
}

func negate(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := !*b
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
