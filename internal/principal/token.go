// Package principal resolves the caller identity of a request, in
// either local (bearer token) or SSO (trusted header) mode, per
// spec.md §4.4. JWT shape grounded in other_examples' golang-jwt/jwt
// usage (asim-malten, rakunlabs-at); bcrypt hash-of-hash grounded in
// other_examples' feather-chat-feather use of golang.org/x/crypto/bcrypt.
package principal

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// Claims is the JWT payload: {sub, role, exp} per spec.md §4.4/§6,
// plus a jti used for log correlation only — never checked for
// single-use or revocation, since spec.md names no such mechanism.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// TokenIssuer mints and verifies bearer tokens with a shared server
// secret.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer returns a TokenIssuer signing HS256 tokens with the
// given secret and expiry.
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}
}

// Issue mints a signed bearer token for the given user.
func (t *TokenIssuer) Issue(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "sign bearer token", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.Unauthorized, "unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid bearer token", err)
	}
	return claims, nil
}
