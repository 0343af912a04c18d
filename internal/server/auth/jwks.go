package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/netx"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const (
	fetchTimeout = 10 * time.Second
	// minRefresh bounds how often an unknown kid may force a refetch.
	minRefresh = 30 * time.Second
)

// Verifier checks a raw bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// JWKSVerifier validates RS256 tokens for one identity provider tenant.
// Signing keys are fetched from https://<domain>/.well-known/jwks.json and
// reused for the configured TTL.
type JWKSVerifier struct {
	jwksURL  string
	issuer   string
	audience string
	ttl      time.Duration
	client   *http.Client
	now      func() time.Time

	mu        sync.Mutex
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time
}

// Option customizes a JWKSVerifier.
type Option func(*JWKSVerifier)

// WithHTTPClient replaces the client used to fetch keys.
func WithHTTPClient(c *http.Client) Option {
	return func(v *JWKSVerifier) { v.client = c }
}

// WithClock replaces the time source used for cache expiry and token validation.
func WithClock(now func() time.Time) Option {
	return func(v *JWKSVerifier) { v.now = now }
}

// NewJWKSVerifier builds a verifier for tokens issued by https://<domain>/
// for audience.
func NewJWKSVerifier(domain, audience string, ttl time.Duration, opts ...Option) *JWKSVerifier {
	v := &JWKSVerifier{
		jwksURL:  fmt.Sprintf("https://%s/.well-known/jwks.json", domain),
		issuer:   fmt.Sprintf("https://%s/", domain),
		audience: audience,
		ttl:      ttl,
		client:   &http.Client{Timeout: fetchTimeout},
		now:      time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify checks signature, algorithm, audience, issuer and expiry of token.
// Failures wrap common.ErrInvalidToken, including a key set that was served
// but could not be decoded. Failing to reach the key endpoint wraps
// common.ErrKeysUnavailable instead.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrKeysUnavailable):
			return nil, err
		case errors.Is(err, ErrInvalidKeySet):
			return nil, err
		case errors.Is(err, ErrUnknownKey):
			return nil, ErrUnknownKey
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, &verificationError{err: err}
		}
	}

	return claims, nil
}

// key returns the RSA public key with the given kid, fetching the key set
// when the cache is empty or stale, or when kid is unknown and the cache is
// older than minRefresh.
func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, ErrUnknownKey
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if v.keys == nil || now.Sub(v.fetchedAt) >= v.ttl {
		if err := v.refresh(ctx, now); err != nil {
			return nil, err
		}
	}

	keys := v.keys.Key(kid)
	if len(keys) == 0 && now.Sub(v.fetchedAt) >= minRefresh {
		if err := v.refresh(ctx, now); err != nil {
			return nil, err
		}
		keys = v.keys.Key(kid)
	}

	for _, k := range keys {
		if pub, ok := k.Key.(*rsa.PublicKey); ok {
			return pub, nil
		}
	}
	return nil, ErrUnknownKey
}

func (v *JWKSVerifier) refresh(ctx context.Context, now time.Time) error {
	var set jose.JSONWebKeySet
	if err := netx.GetJSON(ctx, v.client, v.jwksURL, &set); err != nil {
		if errors.Is(err, netx.ErrInvalidBody) {
			return fmt.Errorf("%w: %v", ErrInvalidKeySet, err)
		}
		return fmt.Errorf("%w: %v", common.ErrKeysUnavailable, err)
	}

	v.keys = &set
	v.fetchedAt = now
	return nil
}
