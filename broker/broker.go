package broker

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rajmhetar/rajos/fs"
)

// Sink consumes events delivered by the broker's drain loop.
type Sink interface {
	// Consume handles one event. Errors are logged by the broker and do not
	// stop delivery to other sinks.
	Consume(ev Event) error
}

// Broker drains the shared event queue with a single consumer loop and
// forwards each event to every configured sink.
type Broker struct {
	queue  *Queue
	sinks  []Sink
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithSinks appends sinks to the broker's fan-out set.
func WithSinks(sinks ...Sink) BrokerOption {
	return func(b *Broker) {
		b.sinks = append(b.sinks, sinks...)
	}
}

// WithLogger sets the logger used for sink delivery failures.
func WithLogger(logger *slog.Logger) BrokerOption {
	return func(b *Broker) {
		b.logger = logger
	}
}

// New creates a Broker draining the given queue.
func New(queue *Queue, opts ...BrokerOption) *Broker {
	b := &Broker{
		queue:  queue,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run drains the queue until it is closed and empty, forwarding each event
// to every sink in registration order. Run is the queue's sole consumer and
// must be called at most once, typically on its own goroutine.
func (b *Broker) Run() {
	defer b.once.Do(func() { close(b.done) })
	for {
		ev, ok := b.queue.Pop()
		if !ok {
			return
		}
		for _, sink := range b.sinks {
			if err := sink.Consume(ev); err != nil {
				b.logger.Warn("sink delivery failed",
					"source", ev.Source.String(),
					"error", err)
			}
		}
	}
}

// Done is closed once Run has drained the queue and returned.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// WriterSink writes each event line to an io.Writer, optionally prefixed
// with a [HH:MM:SS] timestamp.
type WriterSink struct {
	W          io.Writer
	Timestamps bool
}

// Consume implements Sink.
func (s *WriterSink) Consume(ev Event) error {
	var err error
	if s.Timestamps {
		_, err = fmt.Fprintf(s.W, "[%s] %s\n", ev.Time.Format("15:04:05"), ev.Line)
	} else {
		_, err = fmt.Fprintln(s.W, ev.Line)
	}
	return err
}

// ConsoleSink returns a WriterSink targeting standard output.
func ConsoleSink(timestamps bool) *WriterSink {
	return &WriterSink{W: os.Stdout, Timestamps: timestamps}
}

// BufferSink retains every delivered event in memory for later inspection.
type BufferSink struct {
	mu     sync.Mutex
	events []Event
}

// Consume implements Sink.
func (s *BufferSink) Consume(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the delivered events in delivery order.
func (s *BufferSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Lines returns the delivered line texts in delivery order.
func (s *BufferSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.events))
	for i, ev := range s.events {
		lines[i] = ev.Line
	}
	return lines
}

// FileSink appends each event line to a file on the given filesystem.
type FileSink struct {
	file fs.File
}

// NewFileSink opens (creating or truncating) path on fsys for event logging.
func NewFileSink(fsys fs.Filesystem, path string) (*FileSink, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: f}, nil
}

// Consume implements Sink.
func (s *FileSink) Consume(ev Event) error {
	_, err := fmt.Fprintf(s.file, "[%s] %s: %s\n",
		ev.Time.Format("15:04:05"), ev.Source, ev.Line)
	return err
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.file.Close()
}
