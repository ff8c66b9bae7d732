package executor

import (
	"errors"
	"fmt"
)

// InvocationError indicates a command could not be started at all (missing
// binary, permission denial, cancelled context). It never represents a
// nonzero exit from a process that did start.
type InvocationError struct {
	Program string // The program that could not be started.
	Err     error  // The underlying error.
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("cannot invoke %q: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError checks if an error is an InvocationError or contains one
// in its chain.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
