package models

import "errors"

// Error kinds surfaced by the check-in and roster services. Handlers map
// these to HTTP statuses; callers use errors.Is to tell "fix your input"
// (ErrNotFound, ErrInvariantViolation, ErrValidation) from "try again"
// (ErrStorageUnavailable).
var (
	ErrNotFound           = errors.New("guest not found")
	ErrInvariantViolation = errors.New("plus-one allowance exceeded")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("invalid request")
)
