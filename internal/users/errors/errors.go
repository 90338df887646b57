package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrEmailTaken = errors.New("email already registered")

	ErrInvalidCredentials = errors.New("invalid email or password")
)
