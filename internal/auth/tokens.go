// internal/auth/tokens.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "microblog"

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the access-token claims.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 access tokens.
type Tokens struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokens(secret string, accessTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Tokens{secret: []byte(secret), accessTTL: accessTTL}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (t *Tokens) AccessTTL() time.Duration { return t.accessTTL }

// MintAccess creates a signed access token for the user.
func (t *Tokens) MintAccess(userID uuid.UUID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// VerifyAccess parses and validates an access token, returning its claims.
// Expired tokens yield ErrTokenExpired; everything else ErrTokenInvalid.
func (t *Tokens) VerifyAccess(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// UserID returns the subject as a uuid. VerifyAccess already validated it.
func (c *Claims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}
