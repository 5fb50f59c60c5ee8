// Package identity resolves owners, manages their claims map, and issues and
// verifies the bearer tokens the API runs on.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"barkpark-backend/internal/model"
	"barkpark-backend/internal/store"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenClaims is the JWT payload for API tokens.
type TokenClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// AdminResult is returned by the claim-toggling operations; its shape is
// what admin tooling logs.
type AdminResult struct {
	OK     bool           `json:"ok"`
	UID    string         `json:"uid"`
	Claims map[string]any `json:"claims"`
}

// Service implements identity operations over the store.
type Service struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
}

// NewService creates an identity service signing tokens with secret.
func NewService(s store.Store, secret string, ttl time.Duration) *Service {
	return &Service{store: s, secret: []byte(secret), ttl: ttl}
}

// SetAdmin merges admin=makeAdmin into the owner's existing claims and
// invalidates outstanding sessions so clients pick up the new claims on
// their next token.
func (s *Service) SetAdmin(ctx context.Context, uid string, makeAdmin bool) (AdminResult, error) {
	owner, found, err := s.store.GetOwner(ctx, uid)
	if err != nil {
		return AdminResult{}, err
	}
	if !found {
		return AdminResult{}, ErrUserNotFound
	}
	return s.applyAdmin(ctx, owner, makeAdmin)
}

// SetAdminByEmail is the convenience variant keyed by email; the resolved
// uid comes back in the result for logging.
func (s *Service) SetAdminByEmail(ctx context.Context, email string, makeAdmin bool) (AdminResult, error) {
	owner, found, err := s.store.GetOwnerByEmail(ctx, email)
	if err != nil {
		return AdminResult{}, err
	}
	if !found {
		return AdminResult{}, ErrUserNotFound
	}
	return s.applyAdmin(ctx, owner, makeAdmin)
}

func (s *Service) applyAdmin(ctx context.Context, owner model.Owner, makeAdmin bool) (AdminResult, error) {
	merged := make(map[string]any, len(owner.Claims)+1)
	for k, v := range owner.Claims {
		merged[k] = v
	}
	merged["admin"] = makeAdmin

	if err := s.store.SaveOwnerClaims(ctx, owner.ID, merged, time.Now().UTC()); err != nil {
		return AdminResult{}, err
	}
	return AdminResult{OK: true, UID: owner.ID, Claims: merged}, nil
}

// VerifyUser marks the owner's email address as verified.
func (s *Service) VerifyUser(ctx context.Context, uid string) error {
	return s.store.MarkEmailVerified(ctx, uid)
}

// IssueToken mints a signed token for the owner carrying its current claims.
func (s *Service) IssueToken(owner model.Owner) (string, error) {
	now := time.Now().UTC()
	admin, _ := owner.Claims["admin"].(bool)

	claims := TokenClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and rejects tokens issued before the
// owner's session watershed (set whenever claims change).
func (s *Service) ParseToken(ctx context.Context, raw string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	owner, found, err := s.store.GetOwner(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	// IssuedAt round-trips with second precision, so the watershed is
	// truncated before comparing.
	if owner.SessionsInvalidAfter != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(owner.SessionsInvalidAfter.Truncate(time.Second)) {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidToken)
	}
	return &claims, nil
}
