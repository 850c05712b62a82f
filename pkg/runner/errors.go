package runner

import (
	"errors"
	"fmt"
)

// ValidationError reports the first input field that failed schema
// validation. The execution is rejected before any record is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input validation failed on %q: %s", e.Field, e.Message)
}

// ExecutionError wraps a handler failure with its execution context.
type ExecutionError struct {
	ExecutionID string
	Workflow    string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s of workflow %q failed: %v", e.ExecutionID, e.Workflow, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
