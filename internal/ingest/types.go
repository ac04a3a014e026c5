package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhitt/chartwatch/internal/model"
)

// Config holds router configuration.
type Config struct {
	// SampleLimit bounds the MID_HIT and DROP sample lists. Default: 100.
	SampleLimit int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{SampleLimit: 100}
}

// Stats contains router counters. All fields are totals since start.
type Stats struct {
	Ticks        int64 // ticks classified
	Trades       int64 // trade events (counted only)
	Movements    int64 // movement events (logged only)
	StreamErrors int64 // error events from the feed
	Discarded    int64 // ticks dropped before classification (bad ts / null mid)
	DecodeErrors int64 // payloads that failed JSON decoding
	Unknown      int64 // frames with an unrecognized event name

	Push       int64
	UpdateTail int64
	MidHit     int64
	Drop       int64

	StartedAt  time.Time
	LastTickAt time.Time // wall time the last tick was received
}

// Anomaly is one sampled MID_HIT or DROP classification.
type Anomaly struct {
	ID     uuid.UUID
	Class  model.Class
	Key    model.SeriesKey
	TsMs   int64
	Bucket int64
	Price  float64
	At     time.Time // wall time observed
}

// seenKey identifies one delivered tick for cross-validation.
type seenKey struct {
	marketID string
	tsMs     int64
}

// Wire payloads.

type tickWire struct {
	MarketID string   `json:"market_id"`
	Outcome  *string  `json:"outcome"`
	Ts       string   `json:"ts"`
	Mid      *float64 `json:"mid"`
}

type movementWire struct {
	MarketID    string `json:"market_id"`
	Outcome     string `json:"outcome"`
	WindowType  string `json:"window_type"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

type errorWire struct {
	Message string `json:"message"`
}
