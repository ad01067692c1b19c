package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
	"github.com/and161185/crudkeeper/internal/repository/memory"
)

func TestCategoryService_UpdateNameKeepsCode(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewCategoryService(memory.NewTable(repository.CategorySchema), crud.WithClock(func() time.Time { return clock }))
	org := uuid.Must(uuid.NewV4())
	adm := actorIn(org, model.RoleAdmin)

	created, err := s.Create(ctx, adm, CategoryCreate{Code: "BOOKS", Name: "Books"})
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	updated, err := s.Update(ctx, adm, id(t, created.ID), decode[CategoryUpdate](t, `{"name":"Printed books"}`))
	require.NoError(t, err)
	require.Equal(t, "Printed books", updated.Name)
	require.Equal(t, "BOOKS", updated.Code)
	require.Greater(t, updated.UpdatedAt, created.UpdatedAt)

	fetched, err := s.Get(ctx, actorIn(org, model.RoleMember), id(t, created.ID), false)
	require.NoError(t, err)
	require.Equal(t, updated, fetched)
}

func TestCategoryService_CodeUniquePerTenant(t *testing.T) {
	ctx := context.Background()
	s := NewCategoryService(memory.NewTable(repository.CategorySchema))
	org := uuid.Must(uuid.NewV4())
	adm := actorIn(org, model.RoleAdmin)

	a, err := s.Create(ctx, adm, CategoryCreate{Code: "A", Name: "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, adm, CategoryCreate{Code: "B", Name: "b"})
	require.NoError(t, err)

	_, err = s.Create(ctx, adm, CategoryCreate{Code: "A", Name: "again"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	// renaming onto a taken code conflicts, keeping one's own code does not
	_, err = s.Update(ctx, adm, id(t, b.ID), decode[CategoryUpdate](t, `{"code":"A"}`))
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	_, err = s.Update(ctx, adm, id(t, a.ID), decode[CategoryUpdate](t, `{"code":"A","name":"renamed"}`))
	require.NoError(t, err)

	_, err = s.Create(ctx, actorIn(uuid.Must(uuid.NewV4()), model.RoleAdmin), CategoryCreate{Code: "A", Name: "elsewhere"})
	require.NoError(t, err)
}

func TestCategoryService_MembersReadOnly(t *testing.T) {
	ctx := context.Background()
	s := NewCategoryService(memory.NewTable(repository.CategorySchema))
	org := uuid.Must(uuid.NewV4())
	adm, mem := actorIn(org, model.RoleAdmin), actorIn(org, model.RoleMember)

	c, err := s.Create(ctx, adm, CategoryCreate{Code: "A", Name: "a"})
	require.NoError(t, err)

	_, err = s.Create(ctx, mem, CategoryCreate{Code: "B", Name: "b"})
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = s.Update(ctx, mem, id(t, c.ID), decode[CategoryUpdate](t, `{"name":"x"}`))
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.ErrorIs(t, s.Delete(ctx, mem, id(t, c.ID)), errs.ErrForbidden)

	page, err := s.List(ctx, mem, CategorySearch{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, 0, page.Pagination.Current)
}

func TestCategoryService_OtherTenantIsForbidden(t *testing.T) {
	ctx := context.Background()
	s := NewCategoryService(memory.NewTable(repository.CategorySchema))
	theirs := actorIn(uuid.Must(uuid.NewV4()), model.RoleAdmin)
	mine := actorIn(uuid.Must(uuid.NewV4()), model.RoleAdmin)

	c, err := s.Create(ctx, theirs, CategoryCreate{Code: "A", Name: "a"})
	require.NoError(t, err)

	_, err = s.Get(ctx, mine, id(t, c.ID), false)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = s.Update(ctx, mine, id(t, c.ID), decode[CategoryUpdate](t, `{"name":"x"}`))
	require.ErrorIs(t, err, errs.ErrForbidden)

	page, err := s.List(ctx, mine, CategorySearch{Code: ptr("A")})
	require.NoError(t, err)
	require.Empty(t, page.Data)
}

func TestCategoryService_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewCategoryService(memory.NewTable(repository.CategorySchema))
	adm := actorIn(uuid.Must(uuid.NewV4()), model.RoleAdmin)
	for _, in := range []CategoryCreate{
		{Code: "1", Name: "Garden tools", Description: ptr("outdoor")},
		{Code: "2", Name: "garden seeds"},
		{Code: "3", Name: "Kitchen"},
	} {
		_, err := s.Create(ctx, adm, in)
		require.NoError(t, err)
	}

	// name filter is case-sensitive
	page, err := s.List(ctx, adm, CategorySearch{Name: ptr("Garden")})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	page, err = s.List(ctx, adm, CategorySearch{HasDescription: ptr(false)})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)

	page, err = s.List(ctx, adm, CategorySearch{ListRequest: crud.ListRequest{Page: ptr(1), Limit: ptr(2)}})
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "zero-based: page 1 is the second page")
	require.Equal(t, int64(2), page.Pagination.Pages)
}
