package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks a malformed request. Match with errors.Is.
var ErrValidation = errors.New("validation failed")

// Sentinel errors for validation.
var (
	ErrMissingSource = &FieldError{Field: "source", Reason: "is required"}
	ErrMissingAlpha  = &FieldError{Field: "alpha", Reason: "is required"}
	ErrEmptySteps    = &FieldError{Field: "steps", Reason: "can be omitted but must not be empty when specified"}
	ErrMissingTarget = &FieldError{Field: "target", Reason: "is required"}
	ErrMissingLabel  = &FieldError{Field: "label", Reason: "is required"}
)

// Sentinel errors for entity lookups.
var (
	ErrVertexNotFound = errors.New("vertex not found")
	ErrLabelNotFound  = errors.New("edge label not found")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes every FieldError match ErrValidation.
func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

// Invalidf returns a FieldError with a formatted reason.
func Invalidf(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return Invalidf(field, "exceeds maximum length of %d", maxLen)
}
