package model

// -----------------------------------------------------------------------------
// Stream Types
// -----------------------------------------------------------------------------

// Tick is one timestamped price observation for a market outcome.
// Immutable once received; TsMs need not be monotonic across the stream.
type Tick struct {
	MarketID string  // Market identifier
	Outcome  string  // Outcome label ("" if the feed sent null)
	TsMs     int64   // Observation time (ms since epoch)
	Mid      float64 // Mid price
}

// Movement is a window-aggregate event emitted by the movement service.
// Movements are logged, never classified.
type Movement struct {
	MarketID    string // Market identifier
	Outcome     string // Outcome label
	WindowType  string // e.g. "wall" or "aligned"
	WindowStart string // Window start as sent by the feed (ISO-8601)
	WindowEnd   string // Window end as sent by the feed (ISO-8601)
}

// -----------------------------------------------------------------------------
// Series Types
// -----------------------------------------------------------------------------

// SeriesKey uniquely identifies one logical price series.
type SeriesKey struct {
	MarketID string
	Outcome  string
}

// SeriesPoint is one charted point: the price currently assigned to a bucket.
type SeriesPoint struct {
	BucketStartMs int64   // Bucket start (ms since epoch)
	Price         float64 // Last price written into this bucket
}

// Class is the result of classifying a tick against an existing series.
type Class int

const (
	// ClassPush appended a new point; the only classification that grows the series.
	ClassPush Class = iota
	// ClassUpdateTail overwrote the price of the currently-open tail bucket.
	ClassUpdateTail
	// ClassMidHit overwrote a non-tail point in place: late backfill or
	// out-of-order delivery, always noteworthy.
	ClassMidHit
	// ClassDrop rejected a tick whose bucket regresses behind the tail.
	ClassDrop
)

// String returns the wire/report name of the classification.
func (c Class) String() string {
	switch c {
	case ClassPush:
		return "PUSH"
	case ClassUpdateTail:
		return "UPDATE_TAIL"
	case ClassMidHit:
		return "MID_HIT"
	case ClassDrop:
		return "DROP"
	default:
		return "UNKNOWN"
	}
}

// -----------------------------------------------------------------------------
// Ground-Truth Types
// -----------------------------------------------------------------------------

// PersistedTick is one row of the persisted tick ground truth.
type PersistedTick struct {
	MarketID string
	Outcome  string
	TsMs     int64
	Mid      float64
}

// MarketMeta is the once-per-run market metadata: the canonical market id and
// the grid-origin timestamp for the origin-aligned bucket grid.
type MarketMeta struct {
	MarketID      string
	Slug          string
	WindowStartMs int64
}
