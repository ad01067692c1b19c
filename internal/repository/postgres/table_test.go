package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
	"github.com/and161185/crudkeeper/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const followCols = "id, follower_id, followee_id, created_at, updated_at"

var followColNames = []string{"id", "follower_id", "followee_id", "created_at", "updated_at"}

func TestTable_FindMany_ScopedOrderedWindowed(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)

	ctx := context.Background()
	me := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT " + followCols + " FROM follows WHERE follower_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs(me, 10, 20).
		WillReturnRows(pgxmock.NewRows(followColNames).AddRow(id, me, other, now, now))

	where := query.Build(query.Scope{Column: "follower_id", Value: me})
	rows, err := tbl.FindMany(ctx, where, query.DefaultOrder, pagination.Window{Skip: 20, Take: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id, rows[0].ID)
	require.Equal(t, other, rows[0].FolloweeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_FindMany_HugeLimitEmptyResult(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)
	me := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT " + followCols + " FROM follows WHERE follower_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs(me, 1<<50, 0).
		WillReturnRows(pgxmock.NewRows(followColNames))

	where := query.Build(query.Scope{Column: "follower_id", Value: me})
	rows, err := tbl.FindMany(context.Background(), where, query.DefaultOrder, pagination.Window{Take: 1 << 50})
	require.NoError(t, err)
	require.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_Count_FiltersAndEscapesLike(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.TaskSchema)

	owner := uuid.Must(uuid.NewV4())
	status := model.TaskDone
	search := "50%_off"

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM tasks WHERE owner_id = $1 AND deleted_at IS NULL AND title ILIKE $2 AND status = $3")).
		WithArgs(owner, `%50\%\_off%`, model.TaskDone).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	where := query.Build(query.Scope{Column: "owner_id", Value: owner, SoftDelete: true},
		query.Contains("title", &search, true),
		query.Eq("status", &status),
	)
	n, err := tbl.Count(context.Background(), where)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_RejectsUnknownColumns(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.TaskSchema)

	_, err := tbl.Count(context.Background(), query.Predicate{Terms: []query.Term{{Column: "1=1; --", Op: query.OpEq, Value: 1}}})
	require.Error(t, err)

	_, err = tbl.FindMany(context.Background(), query.Predicate{}, query.Order{Column: "nope"}, pagination.Window{Take: 1})
	require.Error(t, err)

	_, err = tbl.Update(context.Background(), query.Predicate{Terms: []query.Term{query.ByID(1)}}, query.Patch{{Column: "nope", Value: 1}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_FindFirst_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + followCols + " FROM follows WHERE id = $1 LIMIT 1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := tbl.FindFirst(context.Background(), query.Predicate{Terms: []query.Term{query.ByID(id)}})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTable_Create_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)
	now := time.Now().UTC()
	f := model.Follow{
		Base:       model.Base{ID: uuid.Must(uuid.NewV4()), CreatedAt: now, UpdatedAt: now},
		FollowerID: uuid.Must(uuid.NewV4()),
		FolloweeID: uuid.Must(uuid.NewV4()),
	}
	insert := regexp.QuoteMeta("INSERT INTO follows (" + followCols + ") VALUES ($1, $2, $3, $4, $5)")

	mock.ExpectExec(insert).
		WithArgs(f.ID, f.FollowerID, f.FolloweeID, f.CreatedAt, f.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, tbl.Create(context.Background(), f))

	mock.ExpectExec(insert).
		WithArgs(f.ID, f.FollowerID, f.FolloweeID, f.CreatedAt, f.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, tbl.Create(context.Background(), f), errs.ErrAlreadyExists)
}

func TestTable_Update_ReturnsRowOrNotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)

	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	where := query.Build(query.Scope{Column: "follower_id", Value: owner}).And(query.ByID(id))
	update := regexp.QuoteMeta(
		"UPDATE follows SET updated_at = $1 WHERE follower_id = $2 AND id = $3 RETURNING " + followCols)

	mock.ExpectQuery(update).
		WithArgs(now, owner, id).
		WillReturnRows(pgxmock.NewRows(followColNames).AddRow(id, owner, owner, now, now))
	row, err := tbl.Update(context.Background(), where, query.Patch{{Column: "updated_at", Value: now}})
	require.NoError(t, err)
	require.Equal(t, id, row.ID)

	mock.ExpectQuery(update).
		WithArgs(now, owner, id).
		WillReturnError(pgx.ErrNoRows)
	_, err = tbl.Update(context.Background(), where, query.Patch{{Column: "updated_at", Value: now}})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = tbl.Update(context.Background(), query.Predicate{}, query.Patch{{Column: "updated_at", Value: now}})
	require.Error(t, err, "unconditioned update must be refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_Delete_ZeroRowsIsNotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	tbl := NewTable(db, repository.FollowSchema)

	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	where := query.Build(query.Scope{Column: "follower_id", Value: owner}).And(query.ByID(id))
	del := regexp.QuoteMeta("DELETE FROM follows WHERE follower_id = $1 AND id = $2")

	mock.ExpectExec(del).WithArgs(owner, id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, tbl.Delete(context.Background(), where))

	mock.ExpectExec(del).WithArgs(owner, id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, tbl.Delete(context.Background(), where), errs.ErrNotFound)

	require.Error(t, tbl.Delete(context.Background(), query.Predicate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
