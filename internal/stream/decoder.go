package stream

import (
	"bytes"
	"time"
)

// Decoder incrementally parses SSE framing from a byte-chunk stream. Chunks
// may split a line or an event arbitrarily; a trailing partial line is
// buffered until completed by a later chunk.
//
// Parsing is tolerant: "data:" lines with no preceding "event:" line are
// ignored, comment lines (leading ':') are skipped, and unrecognized fields
// are dropped. The decoder does not validate payload JSON; that is the
// consumer's concern.
type Decoder struct {
	buf []byte // trailing partial line carried across chunks

	event string
	data  [][]byte
}

// Feed consumes one chunk and returns the frames completed by it, in order.
func (d *Decoder) Feed(chunk []byte, receivedAt time.Time) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]

		line = bytes.TrimSuffix(line, []byte{'\r'})

		if f, ok := d.line(line, receivedAt); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// line processes one complete line; a blank line closes the pending event.
func (d *Decoder) line(line []byte, receivedAt time.Time) (Frame, bool) {
	if len(line) == 0 {
		f, ok := d.flush(receivedAt)
		return f, ok
	}
	if line[0] == ':' {
		return Frame{}, false
	}

	field, value := splitField(line)
	switch field {
	case "event":
		d.event = string(value)
		d.data = d.data[:0]
	case "data":
		// A data line with no preceding event line is ignored.
		if d.event != "" {
			d.data = append(d.data, append([]byte(nil), value...))
		}
	}
	return Frame{}, false
}

// flush emits the pending event, if complete. Multiple data lines are joined
// with a newline per the framing convention.
func (d *Decoder) flush(receivedAt time.Time) (Frame, bool) {
	event := d.event
	data := d.data
	d.event = ""
	d.data = nil

	if event == "" || len(data) == 0 {
		return Frame{}, false
	}

	payload := bytes.Join(data, []byte{'\n'})
	return Frame{Event: event, Data: payload, ReceivedAt: receivedAt}, true
}

// splitField splits "field: value", trimming the single optional space after
// the colon.
func splitField(line []byte) (string, []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return string(line), nil
	}
	value := line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return string(line[:idx]), value
}
