package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/models"
)

type userGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// AuthProvider exposes users to the auth service as bare identities
type AuthProvider struct {
	users userGetter
}

func NewAuthProvider(users userGetter) *AuthProvider {
	return &AuthProvider{users: users}
}

func (p *AuthProvider) GetUser(ctx context.Context, id uuid.UUID) (models.Identity, error) {
	u, err := p.users.GetUser(ctx, id)
	if err != nil {
		return models.Identity{}, err
	}
	return u.Identity(), nil
}

func (p *AuthProvider) GetUserByUsername(ctx context.Context, username string) (models.Identity, error) {
	u, err := p.users.GetUserByUsername(ctx, username)
	if err != nil {
		return models.Identity{}, err
	}
	return u.Identity(), nil
}
