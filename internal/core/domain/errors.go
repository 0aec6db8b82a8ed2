package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleNotFound       = errors.New("role not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidReference   = errors.New("invalid role reference")
	ErrMissingInput       = errors.New("document or email is missing")
	ErrEmailMismatch      = errors.New("email does not belong to the registered document")
	ErrUsersNotFound      = errors.New("users not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	// ErrUserNotFound is returned by stores for a lookup miss. Use cases
	// translate it into the error kind that fits their contract.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError rejects a candidate value on a single field.
// Field is empty when the whole record is missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateEmailError carries the conflicting (normalized) email.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateEmail.Error(), e.Email)
}

// Is lets errors.Is(err, ErrDuplicateEmail) match.
func (e *DuplicateEmailError) Is(target error) bool {
	return target == ErrDuplicateEmail
}
