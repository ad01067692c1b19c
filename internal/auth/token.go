// Package auth resolves the calling actor from bearer credentials and issues tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const leeway = 30 * time.Second

// Claims is the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
	Org  string     `json:"org"`
	Kind Kind       `json:"typ"`
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(key []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{key: key, issuer: issuer, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Issue returns a fresh access/refresh pair for u.
func (s *TokenService) Issue(u model.User) (model.Tokens, error) {
	now := s.now()
	access, accessExp, err := s.sign(u, KindAccess, now, s.accessTTL)
	if err != nil {
		return model.Tokens{}, err
	}
	refresh, refreshExp, err := s.sign(u, KindRefresh, now, s.refreshTTL)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) sign(u model.User, kind Kind, now time.Time, ttl time.Duration) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Issuer:    s.issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: u.Role,
		Org:  u.OrgID.String(),
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	return signed, exp, err
}

// Verify checks signature, issuer, validity window and kind. Failures wrap errs.ErrUnauthorized.
func (s *TokenService) Verify(token string, kind Kind) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: want %s token, got %q", errs.ErrUnauthorized, kind, claims.Kind)
	}
	return &claims, nil
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.FromString(c.RegisteredClaims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return id, nil
}

var errNoBearer = fmt.Errorf("%w: no bearer token", errs.ErrUnauthorized)

// ErrNoCredential reports that the request carried no bearer token at all.
var ErrNoCredential = errors.New("auth: no credential")

// BearerToken extracts the token from an "Authorization: Bearer <t>" header value.
// An empty header yields ErrNoCredential; any other malformed value wraps errs.ErrUnauthorized.
func BearerToken(header string) (string, error) {
	v := strings.TrimSpace(header)
	if v == "" {
		return "", ErrNoCredential
	}
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errNoBearer
}
