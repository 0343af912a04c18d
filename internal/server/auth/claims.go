// Package auth verifies bearer tokens issued by the external identity
// provider against its published signing keys (JWKS).
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

type ctxKey string

const claimsKey ctxKey = "claims"

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom returns the claims stored by WithClaims.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}
