// Package domain defines core types, interfaces, and errors for the dynamic table service.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// UnauthenticatedError indicates missing or invalid credentials.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string { return e.Message }

// ValidationError indicates invalid input. Fields holds per-field messages
// keyed by the request path of the offending value (e.g. "table_fields[0].field_name").
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnsupportedFieldKindError is returned when a field kind is outside the
// closed STRING/NUMBER/BOOLEAN set.
type UnsupportedFieldKindError struct {
	Kind string
}

func (e *UnsupportedFieldKindError) Error() string {
	return fmt.Sprintf("unsupported field kind %q", e.Kind)
}

// StoreError is a failure reported by the physical relational store.
// AlreadyExists is set when the store rejected a CREATE or ADD COLUMN because
// the object is already there.
type StoreError struct {
	Op            string // "create table", "add column", "drop column", "insert", ...
	Object        string // table or column the statement targeted
	AlreadyExists bool
	Err           error
}

func (e *StoreError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Object, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ErrAlreadyRegistered is returned by the catalog when a logical table name
// already has an entry.
var ErrAlreadyRegistered = errors.New("table name already registered")

// IsAlreadyExists reports whether err is a StoreError tagged as "already exists".
func IsAlreadyExists(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.AlreadyExists
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnauthenticated creates an UnauthenticatedError with a formatted message.
func ErrUnauthenticated(format string, args ...interface{}) *UnauthenticatedError {
	return &UnauthenticatedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrFieldValidation creates a ValidationError carrying per-field messages.
func ErrFieldValidation(fields FieldErrors) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// FieldErrors accumulates validation messages keyed by field path.
type FieldErrors map[string][]string

// Add appends a message for the given field path.
func (f FieldErrors) Add(path, msg string) {
	f[path] = append(f[path], msg)
}

// Merge copies all messages from other under prefix (joined with ".").
func (f FieldErrors) Merge(prefix string, other FieldErrors) {
	for k, msgs := range other {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		f[key] = append(f[key], msgs...)
	}
}

// Err returns a ValidationError when any message was recorded, nil otherwise.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return ErrFieldValidation(f)
}
