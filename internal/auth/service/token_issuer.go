package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bbp-platform/user-service/internal/common/clock"
	"github.com/bbp-platform/user-service/internal/observability/metrics"
)

// Claims is what a resolved access token proves about its bearer.
type Claims struct {
	UserID string
	Email  string
}

// TokenIssuer signs and verifies stateless HS256 access tokens. A token is
// the only record of a session; expiry is enforced purely by the exp claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
	}
}

func (ti *TokenIssuer) Issue(userID, email string) (string, error) {
	now := ti.clock.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   now.Add(ti.ttl).Unix(),
		"iat":   now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.secret)
	if err != nil {
		return "", err
	}

	metrics.AccessTokensIssued.Inc()
	return tokenString, nil
}

// Resolve verifies the signature and expiry. A valid signature past its exp
// fails with ErrTokenExpired; signature mismatch, structural corruption or
// an unexpected algorithm fail with ErrTokenInvalid. Callers rely on the
// distinction.
func (ti *TokenIssuer) Resolve(tokenString string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.clock.Now),
	)

	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.TokenValidationFailures.WithLabelValues("expired").Inc()
			return Claims{}, ErrTokenExpired.WithCause(err)
		}
		metrics.TokenValidationFailures.WithLabelValues("invalid").Inc()
		return Claims{}, ErrTokenInvalid.WithCause(err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		metrics.TokenValidationFailures.WithLabelValues("invalid").Inc()
		return Claims{}, ErrTokenInvalid
	}

	sub, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	if sub == "" {
		metrics.TokenValidationFailures.WithLabelValues("invalid").Inc()
		return Claims{}, ErrTokenInvalid
	}

	return Claims{UserID: sub, Email: email}, nil
}
