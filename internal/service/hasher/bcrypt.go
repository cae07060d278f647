package hasher

import (
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt password hasher.
// Hashes are self describing ($2a$<cost>$<salt+digest>) so Verify needs nothing but the hash itself.
type BcryptHasher struct {
	// Zero means bcrypt.DefaultCost
	Cost int
}

var Default = BcryptHasher{}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// Verify reports whether password matches hash.
// Malformed or unknown hash formats are reported as a mismatch.
func (h BcryptHasher) Verify(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
