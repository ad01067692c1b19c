package auth

import (
	"context"
	"fmt"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
)

// Resolver turns a bearer credential into the calling actor.
type Resolver struct {
	tokens *TokenService
	users  repository.UserRepository
}

// NewResolver constructs a Resolver.
func NewResolver(tokens *TokenService, users repository.UserRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve verifies the access token in header and loads its active user.
// Role and organization come from the stored user, not from the token, so
// demotions and deactivations apply immediately.
func (r *Resolver) Resolve(ctx context.Context, header string) (model.Actor, error) {
	tok, err := BearerToken(header)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	claims, err := r.tokens.Verify(tok, KindAccess)
	if err != nil {
		return model.Actor{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Actor{}, err
	}
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	return ActorOf(u), nil
}

// ActorOf returns the actor acting as u.
func ActorOf(u *model.User) model.Actor {
	return model.Actor{ID: u.ID, Role: u.Role, OrgID: u.OrgID}
}
