package auth

import (
	"context"

	"github.com/starford/notely/internal/models"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFrom returns the authenticated user stored in ctx.
func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(contextKey{}).(models.User)
	return u, ok && u.ID != ""
}
