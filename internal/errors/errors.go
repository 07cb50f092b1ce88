// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Standard sentinel errors
var (
	ErrInputValidation = errors.New("input validation failed")
	ErrTradeNotFound   = errors.New("trade not found")
	ErrDuplicateTrade  = errors.New("duplicate trade id")
	ErrBlobNotFound    = errors.New("blob not found")
	ErrBlobConflict    = errors.New("blob changed since it was read")
	ErrDatabaseError   = errors.New("database error")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrUnsupported     = errors.New("unsupported format")
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError represents a validation failure across one or more fields.
// It matches ErrInputValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInputValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("validation error: %s", strings.Join(parts, "; "))
}

// Is reports ErrInputValidation as the sentinel for all validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInputValidation
}

// FieldNames returns the sorted names of the rejected fields.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	sort.Strings(names)
	return names
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field string, value string, message string) *ValidationError {
	return &ValidationError{
		Fields: []FieldError{{Field: field, Value: value, Message: message}},
	}
}

// DataError represents a persistence or decoding error.
type DataError struct {
	Key     string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Key, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(key, message string, err error) *DataError {
	return &DataError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
