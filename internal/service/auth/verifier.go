package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/pkg/clients/identity"
)

// Identity is the verified subject behind a bearer token.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
}

// TokenVerifier exchanges a bearer credential for a verified identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier verifies HMAC-signed JWTs locally.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a local verifier for the given signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type tokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token signature and expiry.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}

	return &Identity{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}, nil
}

// RemoteVerifier introspects tokens against the external identity provider.
type RemoteVerifier struct {
	client identity.Client
}

// NewRemoteVerifier builds a verifier backed by the identity provider client.
func NewRemoteVerifier(client identity.Client) *RemoteVerifier {
	return &RemoteVerifier{client: client}
}

// Verify asks the provider who the token belongs to.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	info, err := v.client.Introspect(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}

	return &Identity{
		Subject:     info.Subject,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}
