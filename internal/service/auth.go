// Package service composes the CRUD executor, repositories and auth into the application's use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/auth"
	"github.com/and161185/crudkeeper/internal/crud"
	pkgcrypto "github.com/and161185/crudkeeper/internal/crypto"
	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/limiter"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
)

const minPasswordLen = 8

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	OrgID       uuid.UUID `json:"org_id"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	DisplayName string    `json:"display_name"`
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users  repository.UserRepository
	orgs   repository.OrgRepository
	tokens *auth.TokenService
	lim    limiter.Limiter
	audit  crud.Auditor
	log    *zap.Logger
	now    func() time.Time
	verify func(password, encoded string) (bool, error)
}

// NewAuthService constructs AuthService with required dependencies. audit may be nil.
func NewAuthService(users repository.UserRepository, orgs repository.OrgRepository, tokens *auth.TokenService,
	lim limiter.Limiter, audit crud.Auditor, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, orgs: orgs, tokens: tokens, lim: lim, audit: audit, log: log, now: time.Now,
		verify: pkgcrypto.VerifyPassword}
}

// Register creates a member account in an existing organization.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	return s.CreateUser(ctx, in, model.RoleMember)
}

// CreateUser creates an account with the given role. Used directly by operator tooling.
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput, role model.Role) (model.User, error) {
	if in.OrgID == uuid.Nil {
		return model.User{}, errs.Invalid("org_id", "required")
	}
	addr, err := email(in.Email)
	if err != nil {
		return model.User{}, err
	}
	if len(in.Password) < minPasswordLen {
		return model.User{}, errs.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	name := in.DisplayName
	if name == "" {
		name = addr
	}
	if name, err = text("display_name", name, 100); err != nil {
		return model.User{}, err
	}
	if !role.Valid() {
		return model.User{}, errs.Invalid("role", "unknown")
	}
	if _, err := s.orgs.GetByID(ctx, in.OrgID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.Invalid("org_id", "unknown organization")
		}
		return model.User{}, err
	}

	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	u := model.User{
		Base:        model.Base{ID: uid, CreatedAt: now, UpdatedAt: now},
		OrgID:       in.OrgID,
		Email:       addr,
		DisplayName: name,
		Role:        role,
		PwdHash:     hash,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	if s.audit != nil {
		entry := model.AuditEntry{OrgID: u.OrgID, ActorID: u.ID, Action: "user.register", TargetType: "user", TargetID: u.ID}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.log.Warn("audit write failed", zap.String("action", entry.Action), zap.Stringer("target", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthService) Login(ctx context.Context, emailAddr, password, ip string) (model.Tokens, model.User, error) {
	account := limiter.Account(emailAddr)
	ipHash := limiter.HashIP(ip)

	allowed, retry, err := s.lim.Allow(ctx, account, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	u, err := s.users.GetByEmail(ctx, account)
	ok := false
	switch {
	case err == nil:
		ok, err = s.verify(password, u.PwdHash)
	case errors.Is(err, errs.ErrNotFound):
		// same argon2 cost as a real account
		_, _ = s.verify(password, pkgcrypto.DummyHash())
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) && !errors.Is(err, pkgcrypto.ErrMalformedHash) {
		return model.Tokens{}, model.User{}, err
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, account, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
	}

	if err := s.lim.Success(ctx, account, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}
	tok, err := s.tokens.Issue(*u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// Refresh exchanges a refresh token for a new pair. The user must still be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return model.Tokens{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Tokens{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, fmt.Errorf("%w: account is gone", errs.ErrUnauthorized)
		}
		return model.Tokens{}, err
	}
	return s.tokens.Issue(*u)
}
