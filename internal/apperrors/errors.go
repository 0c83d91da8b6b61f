package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that a concurrent mutation invalidated a write precondition.
// Callers should treat this as retryable.
var ErrConflict = errors.New("conflicting concurrent modification")

// ErrInsufficientBalance indicates a ledger mutation that would drive the
// running balance negative.
var ErrInsufficientBalance = errors.New("insufficient ledger balance")

// ErrForbidden indicates the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation not allowed")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrFeedUnsupported indicates the backing store cannot provide push-based
// change notifications and callers must fall back to polling.
var ErrFeedUnsupported = errors.New("change feed not supported by store")

// AppError wraps a lower-level error with an HTTP-ish status code and a
// short operator-facing message. Repositories use it to annotate
// infrastructure failures without losing the cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given code, message and cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
