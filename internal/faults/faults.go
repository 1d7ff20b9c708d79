// Package faults defines the error kinds shared across the job execution
// core. Callers classify failures with errors.Is against the sentinels.
package faults

import (
	"errors"
	"fmt"
)

var (
	// ErrLogic marks misuse of an API: a violated precondition, a missing
	// collaborator, a non-empty container that was expected to be empty.
	ErrLogic = errors.New("logic error")

	// ErrRuntime marks a failure of the domain at run time.
	ErrRuntime = errors.New("runtime error")

	// ErrSetupFailed is returned when a procedure could not be set up.
	ErrSetupFailed = fmt.Errorf("setup failed: %w", ErrRuntime)
)

// Logic returns an error of the logic kind with a formatted message.
func Logic(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLogic, fmt.Sprintf(format, args...))
}

// Runtime returns an error of the runtime kind with a formatted message.
func Runtime(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
}

// SetupFailed wraps the cause of a failed procedure setup.
func SetupFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrSetupFailed, cause)
}
