package errors

import "errors"

var (
	ErrInitiationFailed = errors.New("payment initiation failed")

	ErrInvalidPhone = errors.New("phone number is not a supported mobile number")

	ErrUnsupportedCountry = errors.New("M-Pesa payments need a Kenyan phone number")

	ErrUntrustedCallback = errors.New("callback reference could not be verified")
)
