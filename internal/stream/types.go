package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Errors
var (
	ErrAlreadyClosed = errors.New("already closed")
	ErrNotConnected  = errors.New("not connected")
)

// HandshakeError is a non-2xx response on the initial stream handshake.
// Fatal to the run by contract.
type HandshakeError struct {
	StatusCode int
	URL        string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("stream handshake failed: %d on %s", e.StatusCode, e.URL)
}

// Frame is one decoded (event, payload) pair in arrival order.
type Frame struct {
	Event      string    // event name, e.g. "tick"
	Data       []byte    // raw JSON payload
	ReceivedAt time.Time // local time the enclosing chunk was read
}

// Source is a push transport delivering frames.
type Source interface {
	// Connect performs the handshake and starts the read loop.
	Connect(ctx context.Context) error

	// Close stops the read loop. Frames already decoded from a buffered
	// chunk are still dispatched before teardown.
	Close() error

	// Frames returns the frame channel. Closed on end-of-stream.
	Frames() <-chan Frame

	// Errors returns a channel of transport errors. Closed when the read
	// loop exits; closure without a delivered error is a clean end-of-stream.
	Errors() <-chan error
}

// Config configures a stream source.
type Config struct {
	URL        string        // fully built stream URL
	Transport  string        // "sse" or "ws"
	BufferSize int           // frame channel capacity
	Timeout    time.Duration // handshake timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Transport:  "sse",
		BufferSize: 4096,
		Timeout:    10 * time.Second,
	}
}

// BuildURL composes the stream URL: a market is selected by id or by slug
// set, and the bucket width travels as minutes.
func BuildURL(base, marketID string, slugs []string, widthMinutes int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}

	q := u.Query()
	if marketID != "" {
		q.Set("market_id", marketID)
	} else if len(slugs) > 0 {
		q.Set("slugs", strings.Join(slugs, ","))
	}
	q.Set("bucket_minutes", strconv.Itoa(widthMinutes))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
