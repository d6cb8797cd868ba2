// Package logsink provides the durable, size-rotated run log that every
// core operation writes human-readable lines to.
package logsink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// rotateAtMB is the size threshold after which the log is moved aside under
// a timestamp-suffixed name and a fresh file is started.
const rotateAtMB = 5

// Sink appends timestamped lines to a durable log file.
type Sink struct {
	mu     sync.Mutex
	out    io.WriteCloser
	now    func() time.Time
	closed bool
}

// New opens (or creates) the log file at path.
func New(path string) *Sink {
	return &Sink{
		out: &lumberjack.Logger{
			Filename:  path,
			MaxSize:   rotateAtMB,
			LocalTime: true,
		},
		now: time.Now,
	}
}

// NewWithWriter builds a sink over an arbitrary writer (for testing).
func NewWithWriter(w io.WriteCloser) *Sink {
	return &Sink{out: w, now: time.Now}
}

// WriteLine appends one timestamped line. Write failures are swallowed:
// the log is a passive sink and must never fail an operation.
func (s *Sink) WriteLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fmt.Fprintf(s.out, "%s %s\n", s.now().Format("2006-01-02 15:04:05"), line)
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.out.Close()
}
