// Package jwtx verifies session tokens issued by the external identity
// backend. The backend signs sessions with a shared HS256 secret; this
// service only verifies, it never issues sessions of its own.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid session token")
	ErrExpiredToken = errors.New("jwtx: session token expired")
)

// Claims are the session claims this service cares about. The subject is
// the account identifier in the identity backend; role is deliberately
// absent, it comes from the profiles table only.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier validates a raw session token and extracts its claims.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// HS256Verifier verifies HS256-signed session tokens with a shared secret.
type HS256Verifier struct {
	secret []byte
	issuer string // optional: enforced when non-empty
}

func NewHS256Verifier(secret []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{secret: secret, issuer: issuer}
}

func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if sc.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := Claims{
		Subject: sc.Subject,
		Email:   sc.Email,
		Issuer:  sc.Issuer,
	}
	if sc.IssuedAt != nil {
		claims.IssuedAt = sc.IssuedAt.Time
	}
	if sc.ExpiresAt != nil {
		claims.ExpiresAt = sc.ExpiresAt.Time
	}
	return claims, nil
}

// SignHS256 mints a session token. Production sessions come from the
// identity backend; this exists for tests and local development.
func SignHS256(secret []byte, issuer, subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}
