package metadata

import (
	"errors"
	"fmt"
)

// Common metadata errors
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrFolderNotEmpty  = errors.New("folder is not empty")
	ErrBackendDisabled = errors.New("storage backend not enabled")
)

// StorageError is returned by backend adapters when an upstream call fails.
// It unwraps to the underlying cause so callers can match sentinel errors.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err in a StorageError. A nil err stays nil.
func WrapStorage(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}

// Invalid returns an ErrInvalidInput wrapping the given reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
