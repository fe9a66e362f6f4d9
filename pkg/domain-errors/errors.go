// Package domainerrors defines the typed failures surfaced by the domain
// services. Every anticipated bad input maps to one of the codes below; the
// transport layer translates codes to HTTP statuses without inspecting
// messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks single-field problems: format, requiredness,
	// immutability violations.
	CodeValidation Code = "validation"
	// CodeConflict marks uniqueness and limit violations.
	CodeConflict Code = "conflict"
	// CodeReference marks relationship violations: cross-tenant parent,
	// nested subcategory, self-reference, profile not found.
	CodeReference Code = "reference"
	// CodeForbidden marks structurally disallowed operations, such as hard
	// deleting any entity.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks lookups for records that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks failed authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is the domain error type. Field is set for validation and reference
// failures that concern a single field.
type Error struct {
	Code    Code
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error without a field.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// NewField builds a domain error scoped to a single field.
func NewField(code Code, field, message string) error {
	return &Error{Code: code, Field: field, Message: message}
}

// Wrap annotates an underlying error with a domain code and message.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HardDeleteForbidden is the single guard for physical deletion. Every
// entity in this system is soft-delete only. Pass the plural noun.
func HardDeleteForbidden(entities string) error {
	return New(CodeForbidden, fmt.Sprintf("%s cannot be deleted, archive instead", entities))
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// FieldOf returns the field name attached to err, if any.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
