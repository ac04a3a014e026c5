package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Sink writes timestamp-prefixed report lines to the console and, when a
// path is configured, an append-only log file.
type Sink struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
}

// NewSink opens a sink over stdout plus the optional log file.
func NewSink(logPath string) (*Sink, error) {
	s := &Sink{out: os.Stdout}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open report log: %w", err)
		}
		s.file = f
		s.out = io.MultiWriter(os.Stdout, f)
	}

	return s, nil
}

// newSinkWriter builds a sink over an arbitrary writer. Test hook.
func newSinkWriter(w io.Writer) *Sink {
	return &Sink{out: w}
}

// Printf writes one prefixed line.
func (s *Sink) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UTC().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(s.out, "%s %s\n", ts, fmt.Sprintf(format, args...))
}

// Close closes the log file, if any.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
