// Package token issues and validates the signed bearer tokens used for
// stateless authentication.
//
// Tokens are compact JWS strings (three base64url segments) signed with
// HMAC-SHA-256 over a shared secret. Validity is derived entirely from the
// token bytes plus the secret: no server-side session state is consulted.
// The trade-off is the usual one for this scheme: horizontal scalability
// and no session store, at the cost of immediate revocability.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the minimum decoded length of the signing secret
// (256 bits of entropy).
const MinSecretBytes = 32

// Sentinel errors returned by Validate. Callers collapse these into a
// single unauthenticated outcome before anything reaches a client.
var (
	// ErrMalformed means the token does not have the expected three-part
	// signed shape or is missing required claims.
	ErrMalformed = errors.New("malformed token")

	// ErrSignature means the signature does not match the header+payload.
	ErrSignature = errors.New("invalid token signature")

	// ErrExpired means the token's expiration is at or before the current time.
	ErrExpired = errors.New("token expired")
)

// Claims is the decoded payload of a verified token. A Claims value is only
// ever produced by successful validation, never constructed from untrusted
// input directly.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config holds the token service configuration.
type Config struct {
	// Secret is the base64-encoded HMAC signing secret. Required; must
	// decode to at least MinSecretBytes bytes.
	Secret string

	// Lifetime is the duration from issuance to expiration. Required.
	Lifetime time.Duration

	// Now overrides the clock source. If nil, time.Now is used.
	// Intended for tests.
	Now func() time.Time
}

// Service issues and validates tokens. A Service is immutable after New
// and safe for concurrent use; the signing key is shared read-only state.
type Service struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// New creates a token service. Configuration problems here are startup-time
// fatal conditions for the process, not per-request errors: New rejects a
// missing secret, a secret that is not valid base64, a secret shorter than
// MinSecretBytes after decoding, and a non-positive lifetime.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: signing secret is required")
	}

	key, err := base64.StdEncoding.DecodeString(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("token: signing secret is not valid base64: %w", err)
	}

	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("token: signing secret must decode to at least %d bytes, got %d", MinSecretBytes, len(key))
	}

	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token: lifetime must be positive, got %s", cfg.Lifetime)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{key: key, lifetime: cfg.Lifetime, now: now}, nil
}

// Issue builds and signs a token for the given identity. The caller must
// have already authenticated the identity; Issue performs no credential
// checking. Issued-at is the current time and expiration is issued-at plus
// the configured lifetime.
func (s *Service) Issue(identity string) (string, error) {
	now := s.now()

	claims := jwtlib.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(s.lifetime)),
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
}

// Validate parses a token, verifies its signature and expiry, and returns
// the claims. It is pure apart from the clock: no store lookup is involved.
//
// The signature comparison inside the JWT library uses hmac.Equal, which is
// constant-time. Expiry is strict: a token whose expiration equals the
// current time is already expired.
func (s *Service) Validate(token string) (Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &jwtlib.RegisteredClaims{},
		func(t *jwtlib.Token) (any, error) { return s.key, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, translateError(err)
	}

	rc, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || rc.Subject == "" || rc.ExpiresAt == nil {
		return Claims{}, ErrMalformed
	}

	// Strict boundary: expiration <= now means expired.
	if !rc.ExpiresAt.Time.After(s.now()) {
		return Claims{}, ErrExpired
	}

	claims := Claims{
		Subject:   rc.Subject,
		ExpiresAt: rc.ExpiresAt.Time,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}

	return claims, nil
}

// IsValidFor reports whether the token is valid and bound to the given
// identity. It never returns an error: malformed, forged, and expired
// tokens all yield false.
func (s *Service) IsValidFor(token, identity string) bool {
	claims, err := s.Validate(token)
	if err != nil {
		return false
	}
	if claims.Subject != identity {
		return false
	}
	return claims.ExpiresAt.After(s.now())
}

// translateError maps JWT library errors onto the package's sentinel errors.
// Signature problems take precedence over expiry so that a tampered token is
// never reported as merely expired.
func translateError(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return ErrSignature
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
