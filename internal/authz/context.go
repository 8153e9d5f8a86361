package authz

import (
	"context"

	"github.com/perseusdefend/perseus/pkg/tokenx"
)

type ctxKey struct{}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id *tokenx.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the authenticated identity, or nil on
// public routes.
func IdentityFromContext(ctx context.Context) *tokenx.Identity {
	id, _ := ctx.Value(ctxKey{}).(*tokenx.Identity)
	return id
}
