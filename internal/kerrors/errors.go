// Package kerrors defines the error kinds shared by the kirmah packages.
//
// Callers distinguish the kinds with errors.Is against the sentinels, or
// errors.As against the typed errors.
package kerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotKirmah is returned when the input does not carry a recognizable header.
	ErrNotKirmah = errors.New("not a kirmah file")
	// ErrBadKey is returned when the key does not match the one used to produce the input.
	ErrBadKey = errors.New("wrong key or corrupted file")
	// ErrInvalidParameter is returned when a parameter is rejected before any processing.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrCancelled is returned when the operation was aborted through its context.
	ErrCancelled = errors.New("operation cancelled")
	// ErrFileExists is returned when the destination exists and overwriting was not allowed.
	ErrFileExists = errors.New("file already exists")
)

// ValidationError reports a parameter outside its accepted range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidParameter).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// Invalid builds a ValidationError.
func Invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// FileError reports an I/O failure on a specific path.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IO wraps err as a FileError, or returns nil when err is nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &FileError{Op: op, Path: path, Err: err}
}

// IsIOFailure reports whether err carries a FileError.
func IsIOFailure(err error) bool {
	var fe *FileError

	return errors.As(err, &fe)
}

// Corrupt marks a decode failure past the header check as a key mismatch.
func Corrupt(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrBadKey, what)
	}

	return fmt.Errorf("%w: %s: %w", ErrBadKey, what, err)
}

// Cancelled wraps a context error as ErrCancelled.
func Cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
