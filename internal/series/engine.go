package series

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mwhitt/chartwatch/internal/grid"
	"github.com/mwhitt/chartwatch/internal/model"
)

// Config holds the bucket grid parameters for a run. Immutable after start.
type Config struct {
	WidthMs  int64 // bucket width (ms), > 0
	OriginMs int64 // grid origin; 0 means wall-clock aligned
}

// Engine classifies ticks against per-key series. Safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	states map[model.SeriesKey]*outcomeState

	// wall clock, swapped out in tests
	nowMs func() int64
}

// NewEngine creates an engine for the given grid.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		states: make(map[model.SeriesKey]*outcomeState),
		nowMs:  func() int64 { return time.Now().UnixMilli() },
	}
}

// WidthMs returns the bucket width.
func (e *Engine) WidthMs() int64 { return e.cfg.WidthMs }

// OriginMs returns the grid origin.
func (e *Engine) OriginMs() int64 { return e.cfg.OriginMs }

// Apply classifies one tick and mutates the key's series and counters.
// It never fails: malformed input must be filtered before this point.
func (e *Engine) Apply(tick model.Tick) model.Class {
	key := model.SeriesKey{MarketID: tick.MarketID, Outcome: tick.Outcome}
	bucket := grid.BucketStart(tick.TsMs, e.cfg.OriginMs, e.cfg.WidthMs)
	wallBucket := grid.WallBucketStart(tick.TsMs, e.cfg.WidthMs)

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[key]
	if !ok {
		st = &outcomeState{}
		e.states[key] = st
		e.logger.Debug("new series",
			"market", key.MarketID,
			"outcome", key.Outcome,
		)
	}

	if bucket != wallBucket {
		st.alignSplits++
	}

	// Inter-tick gap is recorded for every processed tick, DROPs included.
	if st.counts.Total() > 0 {
		st.gaps = append(st.gaps, tick.TsMs-st.lastTickTsMs)
	}
	st.lastTickTsMs = tick.TsMs

	cls := st.classify(bucket, tick.Mid)
	st.counts.add(cls)

	// Wall-clock cadence between new buckets, independent of data timestamps.
	if cls == model.ClassPush {
		now := e.nowMs()
		if st.counts.Push > 1 {
			st.bucketGaps = append(st.bucketGaps, now-st.lastBucketWallMs)
		}
		st.lastBucketWallMs = now
	}

	return cls
}

// Snapshot returns read-only copies of all per-key state, ordered by key for
// stable report output.
func (e *Engine) Snapshot() []OutcomeSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]OutcomeSnapshot, 0, len(e.states))
	for key, st := range e.states {
		result = append(result, st.snapshot(key))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Key.MarketID != result[j].Key.MarketID {
			return result[i].Key.MarketID < result[j].Key.MarketID
		}
		return result[i].Key.Outcome < result[j].Key.Outcome
	})
	return result
}

// Keys returns the number of distinct series.
func (e *Engine) Keys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}
