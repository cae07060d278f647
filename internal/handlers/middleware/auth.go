package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/handlers/userctx"
	"github.com/nkiryanov/authapi/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// AuthMiddleware resolves bearer token to the user identity and stores it in request context
func AuthMiddleware(as authService, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				render.Unauthorized(w, "Not authenticated")
				return
			}

			identity, err := as.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrUnauthorized):
				render.Unauthorized(w, apperrors.PublicMessage(err, "Invalid token."))
				return
			default:
				l.Error("bearer authentication failed", apperrors.LogAttrs(err)...)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), identity)))
		})
	}
}

// BearerToken extracts token from the "Authorization: Bearer <token>" header.
// Scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
