package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/handlers/middleware"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	AllowedOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	userService userService,
	metrics metricsService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService, logger)

	mux := http.NewServeMux()

	mux.Handle("POST /auth/login", handleLogin(authService, logger))
	mux.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))

	mux.Handle("POST /users", handleCreateUser(userService, logger))
	mux.Handle("POST /users/{$}", handleCreateUser(userService, logger))
	mux.Handle("GET /users/me", withAuth(handleUserMe(userService, logger)))
	mux.Handle("GET /users/{user_id}", withAuth(handleGetUser(userService, logger)))
	mux.Handle("PATCH /users/{user_id}", withAuth(handleUpdateUser(userService, logger)))
	mux.Handle("DELETE /users/{user_id}", withAuth(handleDeleteUser(userService, logger)))

	mux.Handle("GET /metrics", metrics.Handler())

	// Metrics middleware must stay the last one to see the pattern matched by mux
	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.MetricsMiddleware(metrics),
	)

	return handler
}

type authService interface {
	// Login user with username and password.
	// Has to return error matching apperrors.ErrUnauthorized with a public message on bad credentials
	AuthenticateUser(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Issue a new pair for a valid refresh token
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Resolve access token to the user identity
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	CreateUser(ctx context.Context, p user.CreateUserParams) (models.User, error)

	// Next methods have to return apperrors.ErrUserNotFound if there is no such user
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, p user.UpdateUserParams) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type metricsService interface {
	ObserveRequest(method string, route string, status int, duration time.Duration)
	Handler() http.Handler
}
