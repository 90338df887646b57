package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrUnknownStatus = errors.New("booking has unknown status")

	ErrSlotOccupied = errors.New("provider already has a consultation in progress")
)
