package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     *string
	PasswordHash string
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

// Identity is the minimal data the auth service needs to verify a login.
// The same value is attached to request context once a bearer token is resolved.
type Identity struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}

func (u User) Identity() Identity {
	return Identity{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
	}
}
