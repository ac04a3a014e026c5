package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SSEClient consumes an SSE endpoint and delivers decoded frames.
type SSEClient struct {
	cfg    Config
	logger *slog.Logger

	httpClient *http.Client

	frames chan Frame
	errs   chan error
	done   chan struct{}

	mu        sync.Mutex
	cancel    context.CancelFunc
	connected bool
	closed    bool
}

// NewSSEClient creates an SSE stream source.
func NewSSEClient(cfg Config, logger *slog.Logger) *SSEClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &SSEClient{
		cfg:    cfg,
		logger: logger,
		// No overall client timeout: the response body is a long-lived stream.
		httpClient: &http.Client{},
		frames:     make(chan Frame, cfg.BufferSize),
		errs:       make(chan error, 1),
		done:       make(chan struct{}),
	}
}

// Connect performs the handshake and starts the read loop. A non-2xx
// response fails the connect; no retry is attempted.
func (c *SSEClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		cancel()
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return &HandshakeError{StatusCode: resp.StatusCode, URL: c.cfg.URL}
	}

	c.mu.Lock()
	c.cancel = cancel
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(resp.Body)

	c.logger.Debug("sse connected", "url", c.cfg.URL)
	return nil
}

// Close stops the read loop. The in-flight read is abandoned, not awaited.
func (c *SSEClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	cancel := c.cancel
	c.mu.Unlock()

	close(c.done)
	if cancel != nil {
		cancel()
	}
	return nil
}

// Frames returns the frame channel.
func (c *SSEClient) Frames() <-chan Frame { return c.frames }

// Errors returns the transport error channel.
func (c *SSEClient) Errors() <-chan error { return c.errs }

// readLoop reads body chunks, feeds the decoder, and dispatches frames.
// Frames decoded from a chunk are dispatched before the next done check, so
// cancellation never discards already-decoded events. Both channels close on
// exit; a closed error channel with no error means the stream ended cleanly.
func (c *SSEClient) readLoop(body io.ReadCloser) {
	defer body.Close()
	defer close(c.errs)
	defer close(c.frames)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	var dec Decoder
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		receivedAt := time.Now()

		if n > 0 {
			for _, f := range dec.Feed(buf[:n], receivedAt) {
				c.dispatch(f)
			}
		}

		if err != nil {
			if err == io.EOF {
				c.logger.Info("stream ended")
				return
			}
			// Reads cancelled by Close are not transport errors.
			select {
			case <-c.done:
				return
			default:
			}
			select {
			case c.errs <- err:
			default:
			}
			return
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *SSEClient) dispatch(f Frame) {
	select {
	case c.frames <- f:
	default:
		c.logger.Warn("frame buffer full, dropping frame", "event", f.Event)
	}
}
