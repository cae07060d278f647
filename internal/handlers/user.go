package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/handlers/userctx"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/service/user"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		JoinedAt:  u.JoinedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func handleCreateUser(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Username  string  `json:"username" validate:"required,min=3,max=50"`
		Email     string  `json:"email" validate:"required,email,max=254"`
		FirstName string  `json:"first_name" validate:"required,notblank,min=1,max=50"`
		LastName  *string `json:"last_name" validate:"omitnil,notblank,min=1,max=50"`
		Password  string  `json:"password" validate:"required,min=3,max=8,password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, err := userService.CreateUser(r.Context(), user.CreateUserParams{
			Username:  data.Username,
			Email:     data.Email,
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Password:  data.Password,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, newUserResponse(u), http.StatusCreated)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Username or email already exists.", http.StatusBadRequest)
		default:
			l.Error("Failed to create user", apperrors.LogAttrs(err)...)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUserMe(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		u, err := userService.GetUser(r.Context(), identity.ID)
		renderUser(w, u, err, l)
	})
}

func handleGetUser(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUserID(w, r)
		if !ok {
			return
		}

		u, err := userService.GetUser(r.Context(), id)
		renderUser(w, u, err, l)
	})
}

// Only the user itself is allowed to update its profile.
// Email and username are immutable.
func handleUpdateUser(userService userService, l logger.Logger) http.Handler {
	type request struct {
		FirstName *string `json:"first_name" validate:"omitnil,notblank,min=1,max=50"`
		LastName  *string `json:"last_name" validate:"omitnil,notblank,min=1,max=50"`
		Password  *string `json:"password" validate:"omitnil,min=3,max=8,password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedUserID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, err := userService.UpdateUser(r.Context(), id, user.UpdateUserParams{
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Password:  data.Password,
		})
		renderUser(w, u, err, l)
	})
}

func handleDeleteUser(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedUserID(w, r)
		if !ok {
			return
		}

		err := userService.DeleteUser(r.Context(), id)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found.", http.StatusNotFound)
		default:
			l.Error("Failed to delete user", apperrors.LogAttrs(err)...)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func renderUser(w http.ResponseWriter, u models.User, err error, l logger.Logger) {
	switch {
	case err == nil:
		render.JSON(w, newUserResponse(u))
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found.", http.StatusNotFound)
	default:
		l.Error("Failed to load user", apperrors.LogAttrs(err)...)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		render.ServiceError(w, "Invalid user ID format.", http.StatusUnprocessableEntity)
		return uuid.Nil, false
	}
	return id, true
}

// ownedUserID parses path user id and checks it belongs to the authenticated user
func ownedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := pathUserID(w, r)
	if !ok {
		return id, false
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return uuid.Nil, false
	}
	if identity.ID != id {
		render.ServiceError(w, "Identity mismatch.", http.StatusForbidden)
		return uuid.Nil, false
	}

	return id, true
}
