package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrCorruptMetadata   = errors.New("product stock information is unavailable")
)

// IsValidation reports whether err is a user-correctable failure rather than a backend fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrCorruptMetadata)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
