package agent

import (
	"errors"
	"fmt"
)

// ErrSubprocessFailure indicates the agent exited with a non-zero status in the foreground.
var ErrSubprocessFailure = errors.New("agent process failed")

// ExecutionError reports an agent process failure.
type ExecutionError struct {
	// Message is the user-facing description of the failure.
	Message string

	// ExitCode is the process exit code when available.
	ExitCode *int

	// Cause is the underlying error, when available.
	Cause error
}

// Error returns the error message for the execution error.
func (err *ExecutionError) Error() string {
	if err == nil {
		return ""
	}

	if err.Message != "" {
		return err.Message
	}

	if err.ExitCode != nil {
		return fmt.Sprintf("agent exited with status %d", *err.ExitCode)
	}

	if err.Cause != nil {
		return err.Cause.Error()
	}

	return ErrSubprocessFailure.Error()
}

// Unwrap returns the underlying error, if any.
func (err *ExecutionError) Unwrap() error {
	if err == nil {
		return nil
	}

	return err.Cause
}

// Is matches ErrSubprocessFailure.
func (err *ExecutionError) Is(target error) bool {
	return target == ErrSubprocessFailure
}
