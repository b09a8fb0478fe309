package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrDuplicate           = errors.New("duplicate")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrModelUnavailable    = errors.New("model unavailable")
	ErrStorageDisabled     = errors.New("object storage is disabled")
)

// ValidationError carries the caller-facing reason of a rejected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
