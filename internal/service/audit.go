package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
)

// AuditSearch filters the tenant's audit log.
type AuditSearch struct {
	crud.ListRequest
	Action      *string    `json:"action"`
	TargetType  *string    `json:"target_type"`
	TargetID    *uuid.UUID `json:"target_id"`
	ActorID     *uuid.UUID `json:"actor_id"`
	CreatedFrom *time.Time `json:"created_from"`
	CreatedTo   *time.Time `json:"created_to"`
}

// AuditService exposes the audit log to tenant admins.
type AuditService struct {
	ex *crud.Executor[model.AuditEntry, dto.AuditEntry]
}

// NewAuditService constructs an AuditService.
func NewAuditService(store crud.Store[model.AuditEntry], opts ...crud.Option) *AuditService {
	return &AuditService{ex: crud.New(crud.Config[model.AuditEntry, dto.AuditEntry]{
		Resource:    "audit",
		Scope:       crud.ScopeTenant,
		ScopeColumn: "org_id",
		Pagination:  pagination.Policy{Indexing: pagination.OneBased, DefaultLimit: 50},
		Sorts:       query.Sorts{Allowed: map[string]string{"created_at": "created_at", "action": "action"}},
		ToDTO:       dto.AuditEntryFromModel,
	}, store, opts...)}
}

// List returns a page of audit entries.
func (s *AuditService) List(ctx context.Context, actor *model.Actor, in AuditSearch) (crud.Page[dto.AuditEntry], error) {
	if err := requireAdmin(actor); err != nil {
		return crud.Page[dto.AuditEntry]{}, err
	}
	return s.ex.List(ctx, actor, in.ListRequest,
		query.Eq("action", in.Action),
		query.Eq("target_type", in.TargetType),
		query.Eq("target_id", in.TargetID),
		query.Eq("actor_id", in.ActorID),
		query.Range("created_at", in.CreatedFrom, in.CreatedTo),
	)
}
