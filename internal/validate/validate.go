// Package validate holds the local input checks that run before any call
// reaches the identity provider or the booking submitter.
package validate

import (
	"errors"
	"strings"
	"unicode"
)

// ErrValidation matches every *Error through errors.Is.
var ErrValidation = errors.New("validation failed")

// MinPasswordLength is the shortest password accepted locally.
const MinPasswordLength = 6

// Error is a locally detected bad input.  Message is safe to show to users.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Field + ": " + e.Message }

func (e *Error) Is(target error) bool { return target == ErrValidation }

// New builds a validation error for field.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Required fails when value is empty after trimming.
func Required(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return New(field, message)
	}
	return nil
}

// Password applies the local password policy: at least six characters with
// one uppercase and one lowercase letter.
func Password(p string) error {
	if len(p) < MinPasswordLength {
		return New("password", "Password must be at least 6 characters")
	}
	var upper, lower bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	if !upper {
		return New("password", "Password must contain an uppercase letter")
	}
	if !lower {
		return New("password", "Password must contain a lowercase letter")
	}
	return nil
}

// Message returns the user-facing text of a validation error, or "" when
// err is not one.
func Message(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return ""
}
