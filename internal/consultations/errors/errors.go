package errors

import "errors"

var (
	ErrNotFound = errors.New("consultation not found")

	ErrInvalidID = errors.New("invalid consultation ID format")

	ErrUnknownStatus = errors.New("consultation has unknown status")

	// ErrFinalized is returned when a completed record is edited without
	// administrator rights.
	ErrFinalized = errors.New("consultation is completed")

	// ErrStatusChanged is returned when a conditional status write finds the
	// record in a different state than expected.
	ErrStatusChanged = errors.New("consultation status changed concurrently")
)
