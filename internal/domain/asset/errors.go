package asset

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is; messages are safe to show clients.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmptyPayload        = fmt.Errorf("%w: file is empty", ErrInvalidInput)
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrPayloadTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrInvalidOwnerID      = errors.New("invalid owner id")
	ErrStorageWrite        = errors.New("failed to store file")
	ErrStorageRead         = errors.New("failed to read stored file")
	ErrNotFound            = errors.New("no profile image found")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
)

// ValidationError is an ErrInvalidInput carrying per-field messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidInput, e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
