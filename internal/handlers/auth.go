package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
)

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func newTokenPairResponse(pair models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}
}

// Login with form encoded username and password
func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			render.DecodeError(w, err)
			return
		}

		data := request{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
		if err := render.Validate(w, data); err != nil {
			return
		}

		pair, err := authService.AuthenticateUser(r.Context(), data.Username, data.Password)
		renderTokenPair(w, pair, err, l)
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Refresh(r.Context(), data.RefreshToken)
		renderTokenPair(w, pair, err, l)
	})
}

func renderTokenPair(w http.ResponseWriter, pair models.TokenPair, err error, l logger.Logger) {
	switch {
	case err == nil:
		render.JSON(w, newTokenPairResponse(pair))
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.Unauthorized(w, apperrors.PublicMessage(err, "Invalid credentials."))
	default:
		l.Error("Failed to issue token pair", apperrors.LogAttrs(err)...)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
