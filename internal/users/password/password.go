// Package password hashes and checks user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the bcrypt input limit. It counts bytes, not characters.
const MaxBytes = 72

var (
	ErrMismatch = errors.New("password does not match")
	ErrEmpty    = errors.New("password cannot be empty")
	ErrTooLong  = errors.New("password exceeds 72 bytes")
)

func Hash(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmpty
	}
	if len(password) > MaxBytes {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func Verify(password, hash string) error {
	if password == "" || hash == "" {
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}
