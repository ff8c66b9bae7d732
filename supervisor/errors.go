package supervisor

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning indicates Start was called while a handle is already
// starting or running on this supervisor.
var ErrAlreadyRunning = errors.New("a supervised process is already running")

// SpawnError indicates the child process could not be spawned.
type SpawnError struct {
	Command string // The command that could not be spawned.
	Err     error  // The underlying error.
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot spawn %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ProcessExitError indicates the supervised process exited nonzero while no
// stop had been requested.
type ProcessExitError struct {
	ExitCode int // The child's exit code.
}

// Error implements the error interface.
func (e *ProcessExitError) Error() string {
	return fmt.Sprintf("supervised process exited with code %d", e.ExitCode)
}

// IsProcessExitError checks if an error is a ProcessExitError or contains
// one in its chain.
func IsProcessExitError(err error) bool {
	var pe *ProcessExitError
	return errors.As(err, &pe)
}
