// Package auth carries the caller identity. Identities arrive as HS256 JWTs with the
// claims sub, name and role; issuing real user credentials is out of scope.
package auth

import (
	"context"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies identity tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the identity that expires after ttl (no expiry when ttl <= 0).
func (t *Tokens) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	if identity.ID == "" || !identity.Role.Valid() {
		return "", fmt.Errorf("cannot issue token for identity %+v", identity)
	}
	now := t.now()
	claims := Claims{
		Name: identity.Name,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the token and returns the identity it carries.
func (t *Tokens) Parse(raw string) (domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: token lacks subject or role", domain.ErrUnauthenticated)
	}
	return domain.Identity{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

type ctxKey struct{}

// WithIdentity attaches the identity to ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// FromContext returns the current identity, or domain.ErrUnauthenticated if none.
func FromContext(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: no identity in context", domain.ErrUnauthenticated)
	}
	return identity, nil
}
