package catalog

import "errors"

var (
	// ErrNotFound indicates the vendor does not exist or is not approved.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed query.
	ErrInvalidInput = errors.New("invalid input")
)
