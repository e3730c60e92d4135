package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// File-specific errors.
	ErrorNoContent    = errors.New("folder has no content")
	ErrorStorageWrite = errors.New("storage write failed")
)

// ValidationError is returned when caller input is rejected. Msg is safe to
// show to clients as is.
type ValidationError struct {
	Msg string
}

// NewValidationError builds a ValidationError with the given client message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Is makes errors.Is(err, ErrorValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
