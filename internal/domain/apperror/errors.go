// Package apperror holds the error categories shared by every domain package.
// Domain sentinels wrap one of these so callers can classify failures with errors.Is.
package apperror

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrForbidden     = errors.New("forbidden")
)

// Validation wraps a message as a validation failure.
func Validation(msg string) error {
	return &detailed{category: ErrValidation, msg: msg}
}

// Conflict wraps a message as a state conflict.
func Conflict(msg string) error {
	return &detailed{category: ErrStateConflict, msg: msg}
}

type detailed struct {
	category error
	msg      string
}

func (e *detailed) Error() string {
	return e.msg
}

func (e *detailed) Unwrap() error {
	return e.category
}

// Code returns a short machine-readable code for err's category.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal_error"
	}
}
