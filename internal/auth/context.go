package auth

import (
	"context"

	"github.com/and161185/crudkeeper/internal/model"
)

type ctxKey string

const actorKey ctxKey = "ck.actor"

// WithActor stores the authenticated actor in context.
func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext fetches the actor, or nil for anonymous requests.
func ActorFromContext(ctx context.Context) *model.Actor {
	a, ok := ctx.Value(actorKey).(model.Actor)
	if !ok {
		return nil
	}
	return &a
}
