package broker

import (
	"bytes"
	"sync"
	"time"
)

// LineWriter is an io.Writer that splits incoming bytes into lines and
// pushes one event per completed line onto a queue. It lets build stages
// stream their output through the broker while the stage is still running.
type LineWriter struct {
	mu     sync.Mutex
	queue  *Queue
	source Source
	buf    bytes.Buffer
}

// NewLineWriter creates a LineWriter publishing to queue with the given
// source tag.
func NewLineWriter(queue *Queue, source Source) *LineWriter {
	return &LineWriter{queue: queue, source: source}
}

// Write implements io.Writer. Partial lines are buffered until a newline
// arrives or Flush is called.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it buffered.
			w.buf.WriteString(line)
			break
		}
		w.queue.Push(Event{
			Time:   time.Now(),
			Source: w.source,
			Line:   trimEOL(line),
		})
	}
	return len(p), nil
}

// Flush publishes any buffered partial line as a final event.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.queue.Push(Event{
		Time:   time.Now(),
		Source: w.source,
		Line:   trimEOL(w.buf.String()),
	})
	w.buf.Reset()
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
