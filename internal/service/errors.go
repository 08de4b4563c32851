package service

import (
	"errors"
	"fmt"

	"booksearch/internal/catalog"
)

// Domain errors. Transports map these to status codes.
var (
	ErrDuplicateKey       = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrStoreUnavailable   = errors.New("store unavailable")

	ErrUpstreamUnavailable = catalog.ErrUpstreamUnavailable
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeFailure keeps the cause reachable through errors.Is / errors.As.
func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
