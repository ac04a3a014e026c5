package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsServer(t *testing.T, messages []string, closeNormally bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		if closeNormally {
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
		}
		// Hold the connection so reads block until the client is done.
		time.Sleep(2 * time.Second)
		conn.Close()
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClient_ReceivesFrames(t *testing.T) {
	srv := wsServer(t, []string{
		`{"event":"tick","data":{"mid":0.5}}`,
		`{"event":"trade","data":{}}`,
	}, false)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c := NewWSClient(cfg, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	var events []string
	timeout := time.After(2 * time.Second)
	for len(events) < 2 {
		select {
		case f, ok := <-c.Frames():
			if !ok {
				t.Fatalf("frames closed after %d events, want 2", len(events))
			}
			events = append(events, f.Event)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(events))
		}
	}

	if events[0] != "tick" || events[1] != "trade" {
		t.Errorf("events = %v, want [tick trade]", events)
	}
}

func TestWSClient_MalformedEnvelopeSkipped(t *testing.T) {
	srv := wsServer(t, []string{
		`not json at all`,
		`{"data":{}}`,
		`{"event":"tick","data":{}}`,
	}, false)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c := NewWSClient(cfg, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	select {
	case f := <-c.Frames():
		if f.Event != "tick" {
			t.Errorf("event = %q, want tick (bad envelopes skipped)", f.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestWSClient_NormalClosureEndsStream(t *testing.T) {
	srv := wsServer(t, []string{`{"event":"tick","data":{}}`}, true)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c := NewWSClient(cfg, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	got := 0
	for range c.Frames() {
		got++
	}
	if got != 1 {
		t.Errorf("received %d frames before close, want 1", got)
	}

	select {
	case err, ok := <-c.Errors():
		if ok {
			t.Errorf("normal closure surfaced as transport error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("error channel not closed after normal closure")
	}
}

func TestWSClient_HandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c := NewWSClient(cfg, nil)

	err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() succeeded on a 403 handshake")
	}
	hsErr, ok := err.(*HandshakeError)
	if !ok {
		t.Fatalf("error type = %T, want *HandshakeError", err)
	}
	if hsErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", hsErr.StatusCode)
	}
}
