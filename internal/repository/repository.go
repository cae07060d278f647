package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/models"
)

// Storage gives access to repositories sharing the same connection or transaction
type Storage interface {
	User() UserRepo

	// Run fn in a transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     *string
	PasswordHash string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username or email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Report whether any user has the username or the email
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)

	// Save first name, last name and password hash of user; bump its updated_at
	// If user not found must return apperrors.ErrUserNotFound
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
