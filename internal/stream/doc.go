// Package stream provides push transports for the live event feed.
//
// Two transports speak the same (event, payload) frame vocabulary:
//
//   - SSE (primary): standard server-sent-event framing, "event:" and
//     "data:" lines terminated by a blank line. The decoder is incremental
//     and tolerates arbitrary chunk splits.
//   - WebSocket: a relay sending one JSON envelope {"event": ..., "data": ...}
//     per message.
//
// Both implement Source: Connect starts a read loop that delivers frames in
// arrival order on Frames() until end-of-stream, a transport error, or Close.
// Framing and JSON problems in a single event never abort the stream; the
// offending event is dropped.
package stream
