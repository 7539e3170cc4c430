package models

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when a non-admin attempts an admin action.
var ErrForbidden = errors.New("forbidden")

// ValidationError rejects a single input field before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
