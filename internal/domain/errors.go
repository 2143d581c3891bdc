package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by repositories, services and the HTTP layer.
// Handlers translate these with errors.Is; everything else is an internal failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrInternal        = errors.New("internal failure")

	// ErrUnsupportedInterval is a validation error: errors.Is(err, ErrValidation) holds.
	ErrUnsupportedInterval = fmt.Errorf("%w: unsupported interval", ErrValidation)
)

// Validationf builds an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an error that matches ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
