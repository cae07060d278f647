package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newUserParams(username string) repository.CreateUserParams {
	return repository.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "John",
		LastName:     ptr("Doe"),
		PasswordHash: "hashedpassword123",
	}
}

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)

			user, err := r.CreateUser(t.Context(), newUserParams("testuser"))

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, user.ID)
			assert.Equal(t, "testuser", user.Username)
			assert.Equal(t, "testuser@example.com", user.Email)
			assert.Equal(t, "John", user.FirstName)
			assert.Equal(t, ptr("Doe"), user.LastName)
			assert.Equal(t, "hashedpassword123", user.PasswordHash)
			assert.WithinDuration(t, time.Now(), user.JoinedAt, time.Second, "JoinedAt should be recent")
			assert.Equal(t, user.JoinedAt, user.UpdatedAt)
		})
	})

	t.Run("create user without last name", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			params := newUserParams("nolastname")
			params.LastName = nil

			user, err := r.CreateUser(t.Context(), params)

			require.NoError(t, err)
			assert.Nil(t, user.LastName)
		})
	})

	t.Run("create user duplicates", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(p *repository.CreateUserParams)
		}{
			{"same username", func(p *repository.CreateUserParams) { p.Email = "other@example.com" }},
			{"same email", func(p *repository.CreateUserParams) { p.Username = "other" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
					r := NewUserRepo(tx)
					_, err := r.CreateUser(t.Context(), newUserParams("dupe"))
					require.NoError(t, err)

					params := newUserParams("dupe")
					tt.modify(&params)
					_, err = r.CreateUser(t.Context(), params)

					require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
				})
			})
		}
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			created, err := r.CreateUser(t.Context(), newUserParams("findbyid"))
			require.NoError(t, err)

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)

			_, err := r.GetUserByID(t.Context(), uuid.New())

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by username", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			created, err := r.CreateUser(t.Context(), newUserParams("findbyusername"))
			require.NoError(t, err)

			got, err := r.GetUserByUsername(t.Context(), "findbyusername")
			require.NoError(t, err)
			assert.Equal(t, created, got)

			_, err = r.GetUserByUsername(t.Context(), "nonexistentuser")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("exists by username or email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			_, err := r.CreateUser(t.Context(), newUserParams("exists"))
			require.NoError(t, err)

			tests := []struct {
				username string
				email    string
				want     bool
			}{
				{"exists", "new@example.com", true},
				{"new", "exists@example.com", true},
				{"new", "new@example.com", false},
			}

			for _, tt := range tests {
				got, err := r.ExistsByUsernameOrEmail(t.Context(), tt.username, tt.email)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "username=%s email=%s", tt.username, tt.email)
			}
		})
	})

	t.Run("update user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			created, err := r.CreateUser(t.Context(), newUserParams("update"))
			require.NoError(t, err)

			changed := created
			changed.FirstName = "Jane"
			changed.LastName = nil
			changed.PasswordHash = "newhash"
			changed.Username = "ignored"

			got, err := r.UpdateUser(t.Context(), changed)

			require.NoError(t, err)
			assert.Equal(t, "Jane", got.FirstName)
			assert.Nil(t, got.LastName)
			assert.Equal(t, "newhash", got.PasswordHash)
			assert.Equal(t, "update", got.Username, "username is not updatable")
			assert.Equal(t, created.JoinedAt, got.JoinedAt)
		})
	})

	t.Run("update user not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)

			_, err := r.UpdateUser(t.Context(), models.User{ID: uuid.New(), FirstName: "x", PasswordHash: "x"})

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("delete user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NewUserRepo(tx)
			created, err := r.CreateUser(t.Context(), newUserParams("delete"))
			require.NoError(t, err)

			err = r.DeleteUser(t.Context(), created.ID)
			require.NoError(t, err)

			_, err = r.GetUserByID(t.Context(), created.ID)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			err = r.DeleteUser(t.Context(), created.ID)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "second delete finds nothing")
		})
	})
}

func Test_Storage(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("commit", func(t *testing.T) {
		s := NewStorage(pg.Pool)
		var created models.User

		err := s.InTx(t.Context(), func(tx repository.Storage) error {
			var err error
			created, err = tx.User().CreateUser(t.Context(), newUserParams("committed"))
			return err
		})
		require.NoError(t, err)

		got, err := s.User().GetUserByID(t.Context(), created.ID)
		require.NoError(t, err)
		require.Equal(t, "committed", got.Username)

		require.NoError(t, s.User().DeleteUser(t.Context(), created.ID))
	})

	t.Run("rollback", func(t *testing.T) {
		s := NewStorage(pg.Pool)

		err := s.InTx(t.Context(), func(tx repository.Storage) error {
			_, err := tx.User().CreateUser(t.Context(), newUserParams("rolledback"))
			require.NoError(t, err)
			return apperrors.ErrForbidden
		})
		require.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = s.User().GetUserByUsername(t.Context(), "rolledback")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
