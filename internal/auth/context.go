// internal/auth/context.go
package auth

import (
	"context"

	"github.com/google/uuid"

	"microblog/internal/models"
)

type ctxKeyUser struct{}
type ctxKeyClaims struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(*models.User)
	return u, ok && u != nil
}

// WithClaims stores the verified token claims in the context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims{}, c)
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims{}).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated user id from either the user
// or the claims.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID, true
	}
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID(), true
	}
	return uuid.Nil, false
}
