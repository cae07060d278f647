package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/service/hasher"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type UserService struct {
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(h PasswordHasher, storage repository.Storage) *UserService {
	if h == nil {
		h = hasher.Default
	}

	return &UserService{
		hasher:  h,
		storage: storage,
	}
}

type CreateUserParams struct {
	Username  string
	Email     string
	FirstName string
	LastName  *string
	Password  string
}

// Nil fields are left unchanged
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Password  *string
}

// Create user with hashed password
// Returns apperrors.ErrUserAlreadyExists if username or email is taken
func (s *UserService) CreateUser(ctx context.Context, p CreateUserParams) (models.User, error) {
	var user models.User

	if p.Password == "" {
		return user, errors.New("password must not be empty")
	}

	exists, err := s.storage.User().ExistsByUsernameOrEmail(ctx, p.Username, p.Email)
	if err != nil {
		return user, fmt.Errorf("can't check user existence. Err: %w", err)
	}
	if exists {
		return user, apperrors.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:     p.Username,
		Email:        p.Email,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     trimmed(p.LastName),
		PasswordHash: hash,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.storage.User().GetUserByUsername(ctx, username)
}

// Update names or password of the user
// Returns apperrors.ErrUserNotFound if there is no such user
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, p UpdateUserParams) (models.User, error) {
	var user models.User

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		current, err := storage.User().GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		if p.FirstName != nil {
			current.FirstName = strings.TrimSpace(*p.FirstName)
		}
		if p.LastName != nil {
			current.LastName = trimmed(p.LastName)
		}
		if p.Password != nil {
			current.PasswordHash, err = s.hasher.Hash(*p.Password)
			if err != nil {
				return fmt.Errorf("can't use this as password, Err: %w", err)
			}
		}

		user, err = storage.User().UpdateUser(ctx, current)
		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't update user. Err: %w", err)
	}

	return user, nil
}

// Returns apperrors.ErrUserNotFound if there is no such user
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.storage.User().DeleteUser(ctx, id)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
