package account

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the default bcrypt work factor.
const hashCost = 10

// PasswordHasher wraps bcrypt with a fixed cost. Comparison is constant-time
// via bcrypt itself.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = hashCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the salted hash of password. An empty password is malformed
// input, not a hashable secret.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Verify reports whether password matches hash. A mismatch is a false
// result, never an error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
