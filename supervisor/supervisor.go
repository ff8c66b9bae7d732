package supervisor

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rajmhetar/rajos/broker"
)

// Supervisor manages the lifecycle of one long-running child process at a
// time. Start spawns the child and attaches two reader loops that push its
// output lines onto the shared broker queue; Stop performs a bounded
// graceful-then-forceful termination.
//
// Events from the same stream preserve the child's emission order. No
// ordering is guaranteed between stdout and stderr events: the merge is by
// arrival time, which is the strongest guarantee available without
// protocol-level framing from the child.
type Supervisor struct {
	queue  *broker.Queue
	logger *slog.Logger

	// mu guards current and the handle's cmd field: Start publishes the
	// handle and spawns the child under mu, so Stop never observes a handle
	// whose process is still unassigned.
	mu      sync.Mutex
	current *Handle

	subMu       sync.Mutex
	subscribers []chan Transition
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) { s.logger = logger }
}

// New creates a Supervisor publishing output events to the given queue.
func New(queue *broker.Queue, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		queue:  queue,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel receiving state transitions for every handle.
// Delivery to a subscriber whose buffer is full is skipped; transition
// notifications are advisory, unlike output events, which are never dropped.
func (s *Supervisor) Subscribe() <-chan Transition {
	ch := make(chan Transition, 16)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

// Current returns the most recent handle, or nil before the first Start.
func (s *Supervisor) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Start spawns command with the given arguments and transitions the new
// handle to Running. It fails with ErrAlreadyRunning if a handle is already
// starting or running on this supervisor. Machine and CPU selection
// parameters are passed through opaquely in args.
func (s *Supervisor) Start(command string, args ...string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !s.current.State().IsTerminal() {
		return nil, ErrAlreadyRunning
	}

	h := &Handle{
		ID:    uuid.NewString(),
		state: StateIdle,
		done:  make(chan struct{}),
	}
	s.current = h

	s.transition(h, StateStarting)

	cmd := exec.Command(command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.failSpawn(h, command, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.failSpawn(h, command, err)
	}

	if err := cmd.Start(); err != nil {
		return s.failSpawn(h, command, err)
	}
	h.cmd = cmd

	s.logger.Info("process started",
		"handle", h.ID,
		"command", command,
		"pid", cmd.Process.Pid)
	s.transition(h, StateRunning)

	var readers sync.WaitGroup
	readers.Add(2)
	go s.readStream(&readers, stdout, broker.SourceProcessStdout)
	go s.readStream(&readers, stderr, broker.SourceProcessStderr)

	go s.wait(h, &readers)

	return h, nil
}

// Stop requests termination of the current handle: a graceful terminate
// signal first, escalating to a forceful kill if the process has not exited
// within timeout. Stop is idempotent: calling it on an already-terminal
// handle is a no-op returning the existing terminal state.
func (s *Supervisor) Stop(timeout time.Duration) State {
	s.mu.Lock()
	h := s.current
	var proc *os.Process
	if h != nil && h.cmd != nil {
		proc = h.cmd.Process
	}
	s.mu.Unlock()
	if h == nil {
		return StateIdle
	}
	if st := h.State(); st.IsTerminal() {
		return st
	}

	if h.markStopRequested() {
		// A stop is already in flight; wait for it to finish.
		<-h.done
		return h.State()
	}

	s.transition(h, StateStopping)
	s.logger.Info("stopping process", "handle", h.ID, "timeout", timeout)

	if proc != nil {
		_ = proc.Signal(syscall.SIGTERM)
	}

	select {
	case <-h.done:
	case <-time.After(timeout):
		s.logger.Warn("graceful stop timed out, killing", "handle", h.ID)
		if proc != nil {
			_ = proc.Kill()
		}
		<-h.done
	}
	return h.State()
}

// readStream pushes each line of one child stream onto the queue as it
// arrives, preserving the stream's emission order. Lines are read without a
// length limit so a single oversized line cannot stall the stream.
func (s *Supervisor) readStream(wg *sync.WaitGroup, r io.Reader, source broker.Source) {
	defer wg.Done()
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			s.queue.Push(broker.Event{
				Time:   time.Now(),
				Source: source,
				Line:   strings.TrimRight(line, "\r\n"),
			})
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("stream read failed",
					"source", source.String(),
					"error", err)
			}
			return
		}
	}
}

// wait blocks until both streams are drained and the child has exited, then
// finalizes the handle state.
func (s *Supervisor) wait(h *Handle, readers *sync.WaitGroup) {
	readers.Wait()
	err := h.cmd.Wait()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	h.mu.Lock()
	h.exitCode = exitCode
	stopped := h.stopRequested
	if !stopped && exitCode != 0 {
		h.err = &ProcessExitError{ExitCode: exitCode}
	}
	h.mu.Unlock()

	if stopped || exitCode == 0 {
		s.transition(h, StateStopped)
	} else {
		s.transition(h, StateFailed)
	}

	s.logger.Info("process exited",
		"handle", h.ID,
		"exit_code", exitCode,
		"state", h.State().String())
	close(h.done)
}

// failSpawn finalizes a handle whose child never started.
func (s *Supervisor) failSpawn(h *Handle, command string, err error) (*Handle, error) {
	spawnErr := &SpawnError{Command: command, Err: err}
	h.mu.Lock()
	h.err = spawnErr
	h.mu.Unlock()
	s.transition(h, StateFailed)
	close(h.done)
	s.logger.Error("process spawn failed", "command", command, "error", err)
	return h, spawnErr
}

// transition moves the handle to a new state and notifies subscribers.
// Attempts to leave a terminal state are ignored.
func (s *Supervisor) transition(h *Handle, to State) {
	from, changed := h.setState(to)
	if !changed {
		return
	}
	t := Transition{HandleID: h.ID, From: from, To: to}

	s.subMu.Lock()
	subs := make([]chan Transition, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- t:
		default:
		}
	}
}
