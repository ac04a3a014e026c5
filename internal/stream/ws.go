package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsEnvelope is the relay's wire format: one envelope per message.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSClient consumes the websocket relay, which sends the same event
// vocabulary as the SSE endpoint wrapped in JSON envelopes.
type WSClient struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	frames chan Frame
	errs   chan error
	done   chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewWSClient creates a websocket stream source.
func NewWSClient(cfg Config, logger *slog.Logger) *WSClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &WSClient{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, cfg.BufferSize),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect dials the relay and starts the read loop.
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Accept", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.Timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return &HandshakeError{StatusCode: resp.StatusCode, URL: c.cfg.URL}
		}
		return err
	}

	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

// Close stops the read loop and closes the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// Frames returns the frame channel.
func (c *WSClient) Frames() <-chan Frame { return c.frames }

// Errors returns the transport error channel.
func (c *WSClient) Errors() <-chan error { return c.errs }

// Both channels close on exit; a closed error channel with no error means
// the stream ended cleanly.
func (c *WSClient) readLoop() {
	defer close(c.errs)
	defer close(c.frames)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Info("stream ended")
				return
			}
			select {
			case c.errs <- err:
			default:
			}
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			// Malformed single envelope: drop, never abort the stream.
			c.logger.Debug("dropping malformed envelope", "error", err)
			continue
		}

		select {
		case c.frames <- Frame{Event: env.Event, Data: env.Data, ReceivedAt: receivedAt}:
		case <-c.done:
			return
		default:
			c.logger.Warn("frame buffer full, dropping frame", "event", env.Event)
		}
	}
}
