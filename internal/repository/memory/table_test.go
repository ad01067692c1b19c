package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
	"github.com/and161185/crudkeeper/internal/repository"
)

func seedTasks(t *testing.T, tbl *Table[model.Task], owner uuid.UUID, titles ...string) []model.Task {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Task, 0, len(titles))
	for i, title := range titles {
		ts := base.Add(time.Duration(i) * time.Minute)
		task := model.Task{
			Base:     model.Base{ID: uuid.Must(uuid.NewV4()), CreatedAt: ts, UpdatedAt: ts},
			OwnerID:  owner,
			Title:    title,
			Status:   model.TaskTodo,
			Priority: i,
		}
		require.NoError(t, tbl.Create(context.Background(), task))
		out = append(out, task)
	}
	return out
}

func TestTable_FilterSortWindow(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable(repository.TaskSchema)
	me := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	seedTasks(t, tbl, me, "Write report", "read mail", "REPORT review")
	seedTasks(t, tbl, other, "report for someone else")

	search := "report"
	where := query.Build(query.Scope{Column: "owner_id", Value: me, SoftDelete: true},
		query.Contains("title", &search, true))

	n, err := tbl.Count(ctx, where)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	rows, err := tbl.FindMany(ctx, where, query.Order{Column: "priority"}, pagination.Window{Take: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Write report", rows[0].Title)
	require.Equal(t, "REPORT review", rows[1].Title)

	// case-sensitive contains
	where = query.Build(query.Scope{Column: "owner_id", Value: me}, query.Contains("title", &search, false))
	n, err = tbl.Count(ctx, where)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// window beyond the end
	rows, err = tbl.FindMany(ctx, where, query.DefaultOrder, pagination.Window{Skip: 5, Take: 10})
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestTable_WindowBounds(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable(repository.TaskSchema)
	me := uuid.Must(uuid.NewV4())
	seedTasks(t, tbl, me, "a", "b", "c")
	where := query.Build(query.Scope{Column: "owner_id", Value: me})

	rows, err := tbl.FindMany(ctx, where, query.Order{Column: "priority"}, pagination.Window{Skip: 1, Take: math.MaxInt})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "b", rows[0].Title)

	_, err = tbl.FindMany(ctx, where, query.DefaultOrder, pagination.Window{Skip: -8, Take: 4})
	require.Error(t, err)
	_, err = tbl.FindMany(ctx, where, query.DefaultOrder, pagination.Window{Skip: 0, Take: -1})
	require.Error(t, err)
}

func TestTable_RangeAndNull(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable(repository.TaskSchema)
	me := uuid.Must(uuid.NewV4())
	seeded := seedTasks(t, tbl, me, "a", "b", "c", "d")

	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := tbl.Update(ctx, query.Predicate{Terms: []query.Term{query.ByID(seeded[0].ID)}},
		query.Patch{{Column: "due_at", Value: due}})
	require.NoError(t, err)

	lo, hi := 1, 2
	n, err := tbl.Count(ctx, query.Build(query.Scope{Column: "owner_id", Value: me}, query.IntRange("priority", &lo, &hi)))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	isNull := false
	n, err = tbl.Count(ctx, query.Build(query.Scope{Column: "owner_id", Value: me}, query.Null("due_at", &isNull)))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	from := time.Date(2024, 1, 1, 0, 2, 0, 0, time.UTC)
	n, err = tbl.Count(ctx, query.Build(query.Scope{Column: "owner_id", Value: me}, query.Range("created_at", &from, nil)))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestTable_UpdatePatchSemantics(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable(repository.TaskSchema)
	me := uuid.Must(uuid.NewV4())
	task := seedTasks(t, tbl, me, "a")[0]
	byID := query.Predicate{Terms: []query.Term{query.ByID(task.ID)}}

	got, err := tbl.Update(ctx, byID, query.Patch{
		{Column: "description", Value: "hello"},
		{Column: "status", Value: model.TaskDone},
		{Column: "priority", Value: int64(7)},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	require.Equal(t, "hello", *got.Description)
	require.Equal(t, model.TaskDone, got.Status)
	require.Equal(t, 7, got.Priority)
	require.Equal(t, "a", got.Title, "untouched column")

	got, err = tbl.Update(ctx, byID, query.Patch{{Column: "description", Value: nil}})
	require.NoError(t, err)
	require.Nil(t, got.Description)

	_, err = tbl.Update(ctx, byID, query.Patch{{Column: "title", Value: 12}})
	require.Error(t, err)

	_, err = tbl.Update(ctx, query.Predicate{Terms: []query.Term{query.ByID(uuid.Must(uuid.NewV4()))}},
		query.Patch{{Column: "title", Value: "x"}})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = tbl.Update(ctx, query.Predicate{}, query.Patch{{Column: "title", Value: "x"}})
	require.Error(t, err)
}

func TestTable_CreateDuplicateAndDelete(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable(repository.FollowSchema)
	f := model.Follow{
		Base:       model.Base{ID: uuid.Must(uuid.NewV4())},
		FollowerID: uuid.Must(uuid.NewV4()),
		FolloweeID: uuid.Must(uuid.NewV4()),
	}
	require.NoError(t, tbl.Create(ctx, f))
	require.ErrorIs(t, tbl.Create(ctx, f), errs.ErrAlreadyExists)

	byID := query.Predicate{Terms: []query.Term{query.ByID(f.ID)}}
	require.NoError(t, tbl.Delete(ctx, byID))
	require.ErrorIs(t, tbl.Delete(ctx, byID), errs.ErrNotFound)
	_, err := tbl.FindFirst(ctx, byID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTable_UnknownColumn(t *testing.T) {
	tbl := NewTable(repository.FollowSchema)
	_, err := tbl.Count(context.Background(), query.Predicate{Terms: []query.Term{{Column: "nope", Op: query.OpEq, Value: 1}}})
	require.Error(t, err)
	_, err = tbl.FindMany(context.Background(), query.Predicate{}, query.Order{Column: "nope"}, pagination.Window{Take: 1})
	require.Error(t, err)
}

func TestUserRepo_ActiveEmailUnique(t *testing.T) {
	ctx := context.Background()
	users := NewTable(repository.UserSchema)
	r := NewUserRepo(users)
	org := uuid.Must(uuid.NewV4())
	u := &model.User{Base: model.Base{ID: uuid.Must(uuid.NewV4())}, OrgID: org, Email: "a@example.com", Role: model.RoleMember}
	require.NoError(t, r.Create(ctx, u))

	dup := *u
	dup.ID = uuid.Must(uuid.NewV4())
	require.ErrorIs(t, r.Create(ctx, &dup), errs.ErrAlreadyExists)

	got, err := r.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// soft-deleted users free their email and disappear from lookups
	now := time.Now().UTC()
	_, err = users.Update(ctx, query.Predicate{Terms: []query.Term{query.ByID(u.ID)}},
		query.Patch{{Column: query.DeletedAtColumn, Value: now}})
	require.NoError(t, err)
	_, err = r.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, r.Create(ctx, &dup))
}

func TestOrgRepo(t *testing.T) {
	ctx := context.Background()
	r := NewOrgRepo()
	o := &model.Organization{ID: uuid.Must(uuid.NewV4()), Name: "Acme"}
	require.NoError(t, r.Create(ctx, o))
	require.ErrorIs(t, r.Create(ctx, &model.Organization{ID: uuid.Must(uuid.NewV4()), Name: "acme"}), errs.ErrAlreadyExists)

	got, err := r.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)

	_, err = r.GetByID(ctx, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)
}
