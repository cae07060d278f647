package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/service/hasher"
)

// Messages returned to clients. They never contain the failure cause.
const (
	msgInvalidCredentials = "Invalid credentials."
	msgTokenExpired       = "Token expired."
	msgTokenInvalid       = "Invalid token."
	msgTokenTypeMismatch  = "Token type mismatch."
	msgTokenPayload       = "Token payload missing required data."
	msgInvalidUserID      = "Invalid user ID format."
	msgUserNotFound       = "User not found."
)

// Operations and results reported to Recorder
const (
	OperationLogin        = "login"
	OperationRefresh      = "refresh"
	OperationAuthenticate = "authenticate"

	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultExpired            = "expired"
	ResultRejected           = "rejected"
	ResultError              = "error"
)

// Lookup of users known to the system.
// Implemented by the user module and injected at startup.
type UserProvider interface {
	// Has to return apperrors.ErrUserNotFound if user not found
	GetUser(ctx context.Context, id uuid.UUID) (models.Identity, error)
	GetUserByUsername(ctx context.Context, username string) (models.Identity, error)
}

// Interface to create or verify user password hashes
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) bool
}

type TokenManager interface {
	// Issue access and refresh tokens for subject
	GeneratePair(subject string) (models.TokenPair, error)

	// Check signature and expiry
	// Has to return apperrors.ErrTokenExpired or apperrors.ErrTokenMalformed on failure
	Decode(token string) (models.TokenPayload, error)
}

// Receives outcome of every auth operation, e.g. to count them
type Recorder interface {
	AuthAttempt(operation string, result string)
}

type Config struct {
	// Hasher used to verify passwords, hasher.Default if not set
	Hasher PasswordHasher

	// No-op logger if not set
	Logger logger.Logger

	// Optional
	Recorder Recorder
}

type Service struct {
	tokens TokenManager
	users  UserProvider
	hasher PasswordHasher
	logger logger.Logger

	recorder Recorder

	// Verified against when user is not found so both failures cost the same time
	dummyHash string
}

func NewService(cfg Config, tokens TokenManager, users UserProvider) (*Service, error) {
	if tokens == nil || users == nil {
		return nil, errors.New("token manager and user provider must not be nil")
	}

	if cfg.Hasher == nil {
		cfg.Hasher = hasher.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	dummyHash, err := cfg.Hasher.Hash("timing-attack-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("error while preparing dummy hash. Err: %w", err)
	}

	return &Service{
		tokens:    tokens,
		users:     users,
		hasher:    cfg.Hasher,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
		dummyHash: dummyHash,
	}, nil
}

// AuthenticateUser checks username and password and issues a new token pair.
// Unknown user and wrong password fail with the same error.
func (s *Service) AuthenticateUser(ctx context.Context, username string, password string) (pair models.TokenPair, err error) {
	defer func() { s.observe(OperationLogin, err) }()

	identity, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		s.hasher.Verify(password, s.dummyHash)
		s.logger.Debug("login rejected: user not found", "username", username)
		return pair, invalidCredentials()
	default:
		return pair, apperrors.Internal(err, "get user by username")
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		s.logger.Debug("login rejected: wrong password", "username", username)
		return pair, invalidCredentials()
	}

	pair, err = s.tokens.GeneratePair(identity.ID.String())
	if err != nil {
		return pair, apperrors.Internal(err, "generate token pair")
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair.
//
// The subject is not looked up again: a refresh token of a deleted user
// keeps minting pairs until it expires.
func (s *Service) Refresh(ctx context.Context, refresh string) (pair models.TokenPair, err error) {
	defer func() { s.observe(OperationRefresh, err) }()

	payload, err := s.VerifyToken(refresh, models.TokenTypeRefresh)
	if err != nil {
		return pair, err
	}

	pair, err = s.tokens.GeneratePair(payload.Subject)
	if err != nil {
		return pair, apperrors.Internal(err, "generate token pair")
	}

	return pair, nil
}

// Authenticate resolves an access token into the identity of its owner.
// Refresh tokens are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (identity models.Identity, err error) {
	defer func() { s.observe(OperationAuthenticate, err) }()

	payload, err := s.VerifyToken(token, models.TokenTypeAccess)
	if err != nil {
		return identity, err
	}

	userID, err := uuid.Parse(payload.Subject)
	if err != nil {
		return identity, apperrors.Unauthorized(fmt.Errorf("%w: %w", apperrors.ErrTokenSubject, err), msgInvalidUserID)
	}

	identity, err = s.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return identity, apperrors.Unauthorized(fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err), msgUserNotFound)
	default:
		return identity, apperrors.Internal(err, "get user by id")
	}
}

// VerifyToken decodes token and requires it to be of the expected type with a subject
func (s *Service) VerifyToken(token string, expected models.TokenType) (models.TokenPayload, error) {
	payload, err := s.tokens.Decode(token)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTokenExpired):
		return payload, apperrors.Unauthorized(err, msgTokenExpired)
	default:
		return payload, apperrors.Unauthorized(err, msgTokenInvalid)
	}

	if payload.Type != expected {
		s.logger.Debug("token rejected: type mismatch", "expected", expected, "got", payload.Type)
		return models.TokenPayload{}, apperrors.Unauthorized(apperrors.ErrTokenTypeMismatch, msgTokenTypeMismatch)
	}

	if payload.Subject == "" {
		return models.TokenPayload{}, apperrors.Unauthorized(apperrors.ErrTokenSubject, msgTokenPayload)
	}

	return payload, nil
}

func (s *Service) observe(operation string, err error) {
	if s.recorder == nil {
		return
	}

	var result string
	switch {
	case err == nil:
		result = ResultSuccess
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		result = ResultInvalidCredentials
	case errors.Is(err, apperrors.ErrTokenExpired):
		result = ResultExpired
	case errors.Is(err, apperrors.ErrUnauthorized):
		result = ResultRejected
	default:
		result = ResultError
	}

	s.recorder.AuthAttempt(operation, result)
}

func invalidCredentials() error {
	return apperrors.Unauthorized(apperrors.ErrInvalidCredentials, msgInvalidCredentials)
}
