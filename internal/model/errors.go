package model

import (
	"fmt"
)

// ValidationError reports bad input shape or content.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown task id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// ConflictError reports a change that cannot be applied yet because another
// change to the same task is still in flight.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewValidationError returns a ValidationError whose message is prefixed
// with the field name.
func NewValidationError(field, message string) error {
	if field != "" {
		message = field + " " + message
	}
	return &ValidationError{Field: field, Message: message}
}
