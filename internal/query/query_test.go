package query

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/errs"
)

func ptr[T any](v T) *T { return &v }

func TestBuild_ScopeFirstAndNonOverridable(t *testing.T) {
	scope := Scope{Column: "owner_id", Value: "u1", SoftDelete: true}
	p := Build(scope,
		Eq("owner_id", ptr("u2")),
		Null(DeletedAtColumn, ptr(false)),
		Eq("status", ptr("done")),
	)
	require.Equal(t, []Term{
		{Column: "owner_id", Op: OpEq, Value: "u1"},
		{Column: "deleted_at", Op: OpIsNull},
		{Column: "status", Op: OpEq, Value: "done"},
	}, p.Terms)
}

func TestBuild_IncludeDeletedAndUnscoped(t *testing.T) {
	p := Build(Scope{SoftDelete: true, IncludeDeleted: true})
	require.Empty(t, p.Terms)

	p = Build(Scope{Column: "org_id", Value: 7})
	require.Equal(t, []Term{{Column: "org_id", Op: OpEq, Value: 7}}, p.Terms)
}

func TestOptionalHelpers_OmitAbsent(t *testing.T) {
	require.Nil(t, Eq[string]("status", nil))
	require.Nil(t, Contains("title", nil, true))
	require.Nil(t, Contains("title", ptr(""), true))
	require.Nil(t, Range("due_at", nil, nil))
	require.Nil(t, Null("description", nil))

	require.Equal(t, []Term{{Column: "title", Op: OpIContains, Value: "Buy"}}, Contains("title", ptr("Buy"), true))
	require.Equal(t, []Term{{Column: "name", Op: OpContains, Value: "x"}}, Contains("name", ptr("x"), false))
	require.Equal(t, []Term{{Column: "description", Op: OpIsNull}}, Null("description", ptr(true)))
}

func TestRange_OnlySuppliedBounds(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	require.Equal(t, []Term{{Column: "due_at", Op: OpGte, Value: from}}, Range("due_at", &from, nil))
	require.Equal(t, []Term{{Column: "due_at", Op: OpLte, Value: to}}, Range("due_at", nil, &to))
	require.Len(t, Range("due_at", &from, &to), 2)
	require.Len(t, IntRange("priority", ptr(1), ptr(3)), 2)
}

func TestSorts_ResolveFallsBack(t *testing.T) {
	s := Sorts{Allowed: map[string]string{"title": "title", "due": "due_at"}}

	require.Equal(t, DefaultOrder, s.Resolve("", ""))
	require.Equal(t, DefaultOrder, s.Resolve("password; drop table", "asc"))
	require.Equal(t, Order{Column: "title", Desc: false}, s.Resolve("Title", "ASC"))
	require.Equal(t, Order{Column: "due_at", Desc: true}, s.Resolve("due", "sideways"))

	custom := Sorts{Allowed: map[string]string{"code": "code"}, Default: Order{Column: "code"}}
	require.Equal(t, Order{Column: "code"}, custom.Resolve("nope", "desc"))
}

func TestOptional_JSONTriState(t *testing.T) {
	var body struct {
		Name        Optional[string]  `json:"name"`
		Description Optional[*string] `json:"description"`
		Code        Optional[string]  `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"New","description":null}`), &body))

	v, ok := body.Name.Get()
	require.True(t, ok)
	require.Equal(t, "New", v)
	require.True(t, body.Description.Set)
	require.True(t, body.Description.Null)
	require.False(t, body.Code.Set)
}

func TestApply_OmitNullValue(t *testing.T) {
	var p Patch
	require.NoError(t, Apply(&p, "code", Optional[string]{}, false))
	require.Empty(t, p)

	require.NoError(t, Apply(&p, "name", Some("n"), false))
	require.NoError(t, Apply(&p, "description", NullOf[string](), true))
	require.Equal(t, Patch{{Column: "name", Value: "n"}, {Column: "description", Value: nil}}, p)
	require.True(t, p.Has("description"))

	err := Apply(&p, "title", NullOf[string](), false)
	require.True(t, errors.Is(err, errs.ErrValidation))
}

func TestPredicateAnd_DoesNotAlias(t *testing.T) {
	base := Predicate{Terms: make([]Term, 1, 4)}
	a := base.And(ByID(1))
	b := base.And(ByID(2))
	require.Equal(t, 1, a.Terms[1].Value)
	require.Equal(t, 2, b.Terms[1].Value)
}
