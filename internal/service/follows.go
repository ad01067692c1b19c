package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
	"github.com/and161185/crudkeeper/internal/repository"
)

// FollowSearch filters follow relationships.
type FollowSearch struct {
	crud.ListRequest
	UserID *uuid.UUID `json:"user_id"` // the other side of the relationship
}

// FollowCreate is the body of a follow request.
type FollowCreate struct {
	FolloweeID uuid.UUID `json:"followee_id"`
}

// FollowService manages user-to-user follows. Relationships are hard-deleted.
type FollowService struct {
	following *crud.Executor[model.Follow, dto.Follow] // scoped to follower_id
	followers *crud.Executor[model.Follow, dto.Follow] // scoped to followee_id, read only
	users     repository.UserRepository
}

// NewFollowService constructs a FollowService.
func NewFollowService(store crud.Store[model.Follow], users repository.UserRepository, opts ...crud.Option) *FollowService {
	cfg := crud.Config[model.Follow, dto.Follow]{
		Resource:    "follow",
		Scope:       crud.ScopeOwner,
		ScopeColumn: "follower_id",
		Pagination:  pagination.Policy{Indexing: pagination.OneBased, DefaultLimit: 20},
		Sorts:       query.Sorts{Allowed: map[string]string{"created_at": "created_at"}},
		Init: func(f *model.Follow, b model.Base, follower uuid.UUID) {
			f.Base = b
			f.FollowerID = follower
		},
		ToDTO: dto.FollowFromModel,
	}
	following := crud.New(cfg, store, opts...)
	cfg.ScopeColumn = "followee_id"
	followers := crud.New(cfg, store, opts...)
	return &FollowService{following: following, followers: followers, users: users}
}

// Following lists whom the caller follows.
func (s *FollowService) Following(ctx context.Context, actor *model.Actor, in FollowSearch) (crud.Page[dto.Follow], error) {
	return s.following.List(ctx, actor, in.ListRequest, query.Eq("followee_id", in.UserID))
}

// Followers lists who follows the caller.
func (s *FollowService) Followers(ctx context.Context, actor *model.Actor, in FollowSearch) (crud.Page[dto.Follow], error) {
	return s.followers.List(ctx, actor, in.ListRequest, query.Eq("follower_id", in.UserID))
}

// Get returns one of the caller's follows.
func (s *FollowService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (dto.Follow, error) {
	return s.following.Get(ctx, actor, id, false)
}

// Create makes the caller follow in.FolloweeID.
func (s *FollowService) Create(ctx context.Context, actor *model.Actor, in FollowCreate) (dto.Follow, error) {
	if actor == nil {
		return dto.Follow{}, fmt.Errorf("follow: %w", errs.ErrUnauthorized)
	}
	if in.FolloweeID == uuid.Nil {
		return dto.Follow{}, errs.Invalid("followee_id", "required")
	}
	if in.FolloweeID == actor.ID {
		return dto.Follow{}, fmt.Errorf("%w: cannot follow yourself", errs.ErrBusinessRule)
	}
	if _, err := s.users.GetByID(ctx, in.FolloweeID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return dto.Follow{}, errs.Invalid("followee_id", "unknown user")
		}
		return dto.Follow{}, err
	}
	return s.following.Create(ctx, actor, model.Follow{FolloweeID: in.FolloweeID}, crud.Unique{
		Field: "followee_id",
		Terms: []query.Term{
			{Column: "follower_id", Op: query.OpEq, Value: actor.ID},
			{Column: "followee_id", Op: query.OpEq, Value: in.FolloweeID},
		},
	})
}

// Delete removes one of the caller's follows. Deleting it again is ErrNotFound.
func (s *FollowService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	return s.following.Delete(ctx, actor, id)
}
