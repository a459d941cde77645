// Package domain defines core types and errors for the account service.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InvalidSortDirectionError is returned when a sort direction token is
// neither "asc" nor "desc".
type InvalidSortDirectionError struct {
	Direction string
}

func (e *InvalidSortDirectionError) Error() string {
	return fmt.Sprintf("unknown sort direction %q, must be 'desc' or 'asc'", e.Direction)
}

// SortSizeMismatchError is returned when more sort directions than sort keys
// are supplied.
type SortSizeMismatchError struct {
	Keys int
	Dirs int
}

func (e *SortSizeMismatchError) Error() string {
	return fmt.Sprintf("sort direction size (%d) exceeds sort key size (%d)", e.Dirs, e.Keys)
}

// UnknownFieldError is returned when a constraint references a field the
// entity does not have.
type UnknownFieldError struct {
	Entity string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s has no field %q", e.Entity, e.Field)
}

// InvalidSortKeyError is returned when a sort key is not a column of the entity.
type InvalidSortKeyError struct {
	Entity string
	Key    string
}

func (e *InvalidSortKeyError) Error() string {
	return fmt.Sprintf("sort key %q supplied was not valid for %s", e.Key, e.Entity)
}

// IsCallerInput reports whether err was caused by caller-supplied query
// parameters rather than by the store. These errors are never retried.
func IsCallerInput(err error) bool {
	var (
		ve  *ValidationError
		sde *InvalidSortDirectionError
		sme *SortSizeMismatchError
		ufe *UnknownFieldError
		ske *InvalidSortKeyError
	)
	return errors.As(err, &ve) || errors.As(err, &sde) || errors.As(err, &sme) ||
		errors.As(err, &ufe) || errors.As(err, &ske)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
