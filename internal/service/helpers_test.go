package service

import (
	"encoding/json"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/crudkeeper/internal/model"
)

func ptr[T any](v T) *T { return &v }

func actorIn(org uuid.UUID, role model.Role) *model.Actor {
	return &model.Actor{ID: uuid.Must(uuid.NewV4()), Role: role, OrgID: org}
}

// decode builds a request value the way the HTTP layer does, so Optional fields see real JSON.
func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func id(t *testing.T, s string) uuid.UUID {
	t.Helper()
	u, err := uuid.FromString(s)
	require.NoError(t, err)
	return u
}
