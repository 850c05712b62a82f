// Package persistence defines the storage contracts for daily codes,
// bearer tokens, execution records and audit entries, plus the
// standardized error types all implementations use.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrCodeNotFound indicates no daily code exists for the requested identity and date.
	ErrCodeNotFound = errors.New("daily code not found")

	// ErrCodeAlreadyExists indicates a code for the same identity and date is already stored.
	ErrCodeAlreadyExists = errors.New("daily code already exists")

	// ErrCodeAlreadyUsed indicates the code was consumed by an earlier login.
	ErrCodeAlreadyUsed = errors.New("daily code already used")

	// ErrTokenNotFound indicates the bearer token is unknown to the store.
	ErrTokenNotFound = errors.New("token not found")

	// ErrExecutionNotFound indicates an execution record was not found by its identifier.
	ErrExecutionNotFound = errors.New("execution record not found")
)

// StoreError wraps persistence failures with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g. "GetCode", "SaveToken")
	Key string // Record key if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with operation context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

func IsCodeNotFound(err error) bool {
	return errors.Is(err, ErrCodeNotFound)
}

func IsCodeAlreadyExists(err error) bool {
	return errors.Is(err, ErrCodeAlreadyExists)
}

func IsCodeAlreadyUsed(err error) bool {
	return errors.Is(err, ErrCodeAlreadyUsed)
}

func IsTokenNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound)
}

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
