// internal/core/domain/errors.go
package domain

import "errors"

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "record not found"
	}
	return e.Message
}

// NewNotFound creates a NotFoundError with the given message.
func NewNotFound(message string) error {
	return &NotFoundError{Message: message}
}

// ValidationError signals invalid input: empty batches, empty inventory
// row sets, edits against a non-pending inventory, malformed payloads.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return e.Message
}

// NewValidation creates a ValidationError with the given message.
func NewValidation(message string) error {
	return &ValidationError{Message: message}
}

// ConflictError signals a business-rule violation: duplicate names,
// deleting master data that operations still reference.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "operation not allowed"
	}
	return e.Message
}

// NewConflict creates a ConflictError with the given message.
func NewConflict(message string) error {
	return &ConflictError{Message: message}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var t *ConflictError
	return errors.As(err, &t)
}

// IsDomainError reports whether err belongs to the domain taxonomy and may
// cross the API boundary unchanged. Everything else is logged and replaced
// by a generic internal error.
func IsDomainError(err error) bool {
	return IsNotFound(err) || IsValidation(err) || IsConflict(err)
}
