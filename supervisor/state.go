// Package supervisor owns the lifecycle of one long-running emulated-target
// process: spawning it, fanning its stdout and stderr into the shared output
// queue, and providing bounded two-phase cancellation.
package supervisor

// State is the lifecycle state of a supervised process handle.
//
// The state machine is Idle → Starting → Running → (Stopping → Stopped) or
// Failed. Stopped and Failed are terminal for a handle; a new Start creates
// a new handle.
type State string

const (
	// StateIdle is the initial state before any Start.
	StateIdle State = "idle"

	// StateStarting means the child process is being spawned.
	StateStarting State = "starting"

	// StateRunning means the child process is alive and its streams are
	// being read.
	StateRunning State = "running"

	// StateStopping means a stop was requested and the supervisor is waiting
	// for the child to exit.
	StateStopping State = "stopping"

	// StateStopped means the child exited after a stop request, or exited on
	// its own with code zero. Terminal.
	StateStopped State = "stopped"

	// StateFailed means the child could not be spawned, or exited nonzero
	// while no stop was requested. Terminal.
	StateFailed State = "failed"
)

// String returns the string representation of the State.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state is terminal for a handle.
func (s State) IsTerminal() bool {
	switch s {
	case StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// Transition records one state change of a supervised handle, for observers
// subscribing to lifecycle notifications.
type Transition struct {
	// HandleID identifies the handle that changed state.
	HandleID string

	// From and To are the states before and after the change.
	From State
	To   State
}
