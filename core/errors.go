package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-level messages for malformed input or
// references to records that do not exist. It is reported before any write.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError signals an operation that clashes with committed state: a
// duplicate student assignment within an evaluation group, or deleting a
// commission that has completed evaluations. IDs holds the conflicting records.
type ConflictError struct {
	Err error
	IDs []string
}

func NewConflictError(err error, ids ...string) error {
	return &ConflictError{Err: err, IDs: ids}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	if len(err.IDs) == 0 {
		return err.Err.Error()
	}
	return err.Err.Error() + ": " + strings.Join(err.IDs, ", ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
