package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
	"github.com/and161185/crudkeeper/internal/repository/memory"
)

type userFixture struct {
	users  *UserService
	audit  *AuditService
	admin  *model.Actor
	member *model.Actor
	peer   *model.Actor
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	ctx := context.Background()
	table := memory.NewTable(repository.UserSchema)
	repo := memory.NewUserRepo(table)
	auditTable := memory.NewTable(repository.AuditSchema)
	org := uuid.Must(uuid.NewV4())

	add := func(email string, role model.Role) *model.Actor {
		u := model.User{Base: model.Base{ID: uuid.Must(uuid.NewV4())}, OrgID: org, Email: email, DisplayName: email, Role: role}
		require.NoError(t, repo.Create(ctx, &u))
		return &model.Actor{ID: u.ID, Role: role, OrgID: org}
	}
	return userFixture{
		users:  NewUserService(table, crud.WithAuditor(crud.NewStoreAuditor(auditTable))),
		audit:  NewAuditService(auditTable),
		admin:  add("admin@example.com", model.RoleAdmin),
		member: add("member@example.com", model.RoleMember),
		peer:   add("peer@example.com", model.RoleMember),
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	u, err := f.users.Update(ctx, f.member, f.member.ID, decode[UserUpdate](t, `{"display_name":"  Me  "}`))
	require.NoError(t, err)
	require.Equal(t, "Me", u.DisplayName)
	require.Equal(t, "member@example.com", u.Email)

	_, err = f.users.Update(ctx, f.member, f.peer.ID, decode[UserUpdate](t, `{"display_name":"x"}`))
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.users.Update(ctx, f.member, f.member.ID, decode[UserUpdate](t, `{"role":"admin"}`))
	require.ErrorIs(t, err, errs.ErrForbidden)

	u, err = f.users.Update(ctx, f.admin, f.peer.ID, decode[UserUpdate](t, `{"role":"admin"}`))
	require.NoError(t, err)
	require.Equal(t, "admin", u.Role)

	_, err = f.users.Update(ctx, f.admin, f.admin.ID, decode[UserUpdate](t, `{"role":"member"}`))
	require.ErrorIs(t, err, errs.ErrBusinessRule)

	_, err = f.users.Update(ctx, f.admin, f.peer.ID, decode[UserUpdate](t, `{"role":"owner"}`))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.users.Update(ctx, f.admin, f.peer.ID, decode[UserUpdate](t, `{}`))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestUserService_DeleteAndAudit(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	require.ErrorIs(t, f.users.Delete(ctx, f.member, f.peer.ID), errs.ErrForbidden)
	require.ErrorIs(t, f.users.Delete(ctx, f.admin, f.admin.ID), errs.ErrBusinessRule)
	require.NoError(t, f.users.Delete(ctx, f.admin, f.peer.ID))
	require.ErrorIs(t, f.users.Delete(ctx, f.admin, f.peer.ID), errs.ErrNotFound)

	_, err := f.users.Get(ctx, f.admin, f.peer.ID, false)
	require.ErrorIs(t, err, errs.ErrNotFound)
	got, err := f.users.Get(ctx, f.admin, f.peer.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)

	page, err := f.users.List(ctx, f.member, UserSearch{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Pagination.Records)
	require.Equal(t, 25, page.Pagination.Limit)

	_, err = f.audit.List(ctx, f.member, AuditSearch{})
	require.ErrorIs(t, err, errs.ErrForbidden)

	entries, err := f.audit.List(ctx, f.admin, AuditSearch{Action: ptr("user.delete")})
	require.NoError(t, err)
	require.Len(t, entries.Data, 1)
	require.Equal(t, f.peer.ID.String(), entries.Data[0].TargetID)
	require.Equal(t, f.admin.ID.String(), entries.Data[0].ActorID)
}
