package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// MissingToolsError reports every toolchain tool that failed to resolve
// during preflight. It aggregates all missing tools rather than stopping at
// the first, so one error gives the complete picture.
type MissingToolsError struct {
	// Missing holds the unresolved tool command names in Tools() order.
	Missing []string
}

// Error implements the error interface.
func (e *MissingToolsError) Error() string {
	return fmt.Sprintf("missing toolchain tools: %s", strings.Join(e.Missing, ", "))
}

// IsMissingToolsError checks if an error is a MissingToolsError or contains
// one in its chain.
func IsMissingToolsError(err error) bool {
	var me *MissingToolsError
	return errors.As(err, &me)
}
