// Package auth issues and verifies the bearer tokens that identify callers,
// and hashes the passwords behind them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/apperr"
)

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Verifier resolves a bearer credential to a caller identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Claims, error)
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens builds a token authority. The secret must not be empty.
func NewTokens(secret, issuer string, ttl time.Duration, now func() time.Time) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: now}, nil
}

// Issue mints an access token for the user.
func (t *Tokens) Issue(userID, email string) (string, error) {
	now := t.now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify accepts either a raw token or an "Authorization" header value with
// the Bearer scheme. Any failure is reported as Unauthorized.
func (t *Tokens) Verify(_ context.Context, credential string) (Claims, error) {
	raw := BearerToken(credential)
	if raw == "" {
		return Claims{}, apperr.Unauthorized()
	}

	var parsed accessClaims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.KindUnauthorized, "Unauthorized", err)
	}
	if parsed.Subject == "" {
		return Claims{}, apperr.Unauthorized()
	}

	return Claims{
		UserID:    parsed.Subject,
		Email:     parsed.Email,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

// BearerToken strips an optional "Bearer " prefix from a header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
