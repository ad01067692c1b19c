package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
)

// OrgService creates tenants. It is only reachable from operator tooling.
type OrgService struct {
	orgs repository.OrgRepository
	now  func() time.Time
}

// NewOrgService constructs an OrgService.
func NewOrgService(orgs repository.OrgRepository) *OrgService {
	return &OrgService{orgs: orgs, now: time.Now}
}

// Create inserts a new organization.
func (s *OrgService) Create(ctx context.Context, name string) (model.Organization, error) {
	name, err := text("name", name, 200)
	if err != nil {
		return model.Organization{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Organization{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	o := model.Organization{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.orgs.Create(ctx, &o); err != nil {
		return model.Organization{}, err
	}
	return o, nil
}
