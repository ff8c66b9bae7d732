package supervisor

import (
	"os/exec"
	"sync"
)

// Handle identifies one supervised child process. Its stdio pipes are owned
// exclusively by the supervisor's reader loops until the process exits.
type Handle struct {
	// ID uniquely identifies this handle across the supervisor's lifetime.
	ID string

	cmd  *exec.Cmd
	done chan struct{}

	mu            sync.Mutex
	state         State
	stopRequested bool
	exitCode      int
	err           error
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ExitCode returns the child's exit code. Valid once the handle is terminal.
func (h *Handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Err returns the terminal error, if any: a *SpawnError when the child could
// not be spawned, or a *ProcessExitError after an unsolicited nonzero exit.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done is closed once the child has exited and both streams are drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// setState updates the state under the handle lock and returns the previous
// state. Terminal states are sticky: once Stopped or Failed, the handle
// never transitions again.
func (h *Handle) setState(to State) (from State, changed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	from = h.state
	if from.IsTerminal() {
		return from, false
	}
	h.state = to
	return from, true
}

// markStopRequested records that a stop was requested, returning whether it
// already was.
func (h *Handle) markStopRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.stopRequested
	h.stopRequested = true
	return was
}
