package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when an email/password pair does not match.
var ErrBadCredentials = errors.New("invalid email or password")

// HashPassword hashes pwd with the given bcrypt cost, falling back to the default.
func HashPassword(pwd string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(pwd), cost)
}

// CheckPassword compares pwd against hash.
func CheckPassword(hash []byte, pwd string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pwd)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
