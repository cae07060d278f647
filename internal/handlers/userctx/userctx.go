package userctx

import (
	"context"

	"github.com/nkiryanov/authapi/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Create a new context carrying identity of the authenticated user
func New(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Extract the identity from the context
func FromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
