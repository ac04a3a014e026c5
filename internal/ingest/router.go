package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitt/chartwatch/internal/grid"
	"github.com/mwhitt/chartwatch/internal/model"
	"github.com/mwhitt/chartwatch/internal/series"
	"github.com/mwhitt/chartwatch/internal/stream"
)

// Router consumes frames and feeds validated ticks to the series engine.
type Router struct {
	cfg    Config
	logger *slog.Logger

	input  <-chan stream.Frame
	engine *series.Engine

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stats   Stats
	seen    map[seenKey]struct{}
	midHits []Anomaly
	drops   []Anomaly
}

// NewRouter creates a router over the given frame channel.
func NewRouter(cfg Config, input <-chan stream.Frame, engine *series.Engine, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleLimit < 1 {
		cfg.SampleLimit = DefaultConfig().SampleLimit
	}
	return &Router{
		cfg:    cfg,
		logger: logger,
		input:  input,
		engine: engine,
		seen:   make(map[seenKey]struct{}),
	}
}

// Start begins routing frames.
func (r *Router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.mu.Lock()
	r.stats.StartedAt = time.Now()
	r.mu.Unlock()

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("ingest router started", "sample_limit", r.cfg.SampleLimit)
	return nil
}

// Stop gracefully shuts down the router.
func (r *Router) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("ingest router stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("ingest router stop timed out")
		return ctx.Err()
	}
}

// Stats returns a copy of the current counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// MidHits returns the sampled MID_HIT classifications.
func (r *Router) MidHits() []Anomaly {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Anomaly, len(r.midHits))
	copy(out, r.midHits)
	return out
}

// Drops returns the sampled DROP classifications.
func (r *Router) Drops() []Anomaly {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Anomaly, len(r.drops))
	copy(out, r.drops)
	return out
}

// Seen reports whether the stream delivered a tick with this (market, ts).
func (r *Router) Seen(marketID string, tsMs int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[seenKey{marketID: marketID, tsMs: tsMs}]
	return ok
}

// routeLoop is the main routing goroutine. It exits when the input channel
// closes (end-of-stream) or the context is cancelled; frames already queued
// by the transport are still consumed on cancellation until the channel
// drains or closes.
func (r *Router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			// Drain what the transport already decoded.
			for {
				select {
				case f, ok := <-r.input:
					if !ok {
						return
					}
					r.route(f)
				default:
					return
				}
			}
		case f, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(f)
		}
	}
}

// route handles a single frame.
func (r *Router) route(f stream.Frame) {
	switch f.Event {
	case "tick":
		r.routeTick(f)

	case "trade":
		r.mu.Lock()
		r.stats.Trades++
		r.mu.Unlock()

	case "movement":
		var w movementWire
		if err := json.Unmarshal(f.Data, &w); err != nil {
			r.countDecodeError(f.Event, err)
			return
		}
		r.mu.Lock()
		r.stats.Movements++
		r.mu.Unlock()
		r.logger.Info("movement",
			"market", w.MarketID,
			"outcome", w.Outcome,
			"window_type", w.WindowType,
			"window_start", w.WindowStart,
			"window_end", w.WindowEnd,
		)

	case "error":
		var w errorWire
		if err := json.Unmarshal(f.Data, &w); err != nil {
			r.countDecodeError(f.Event, err)
			return
		}
		r.mu.Lock()
		r.stats.StreamErrors++
		r.mu.Unlock()
		r.logger.Warn("stream error event", "message", w.Message)

	default:
		r.mu.Lock()
		r.stats.Unknown++
		r.mu.Unlock()
		r.logger.Debug("skipping event", "event", f.Event)
	}
}

// routeTick validates and classifies one tick payload.
func (r *Router) routeTick(f stream.Frame) {
	var w tickWire
	if err := json.Unmarshal(f.Data, &w); err != nil {
		r.countDecodeError("tick", err)
		return
	}

	tsMs, tsOK := parseTs(w.Ts)
	if !tsOK || w.Mid == nil || math.IsNaN(*w.Mid) || math.IsInf(*w.Mid, 0) {
		// Never reaches the engine: no classification, no gap statistics.
		r.mu.Lock()
		r.stats.Discarded++
		r.mu.Unlock()
		r.logger.Debug("discarding tick", "market", w.MarketID, "ts", w.Ts)
		return
	}

	outcome := ""
	if w.Outcome != nil {
		outcome = *w.Outcome
	}

	tick := model.Tick{
		MarketID: w.MarketID,
		Outcome:  outcome,
		TsMs:     tsMs,
		Mid:      *w.Mid,
	}

	cls := r.engine.Apply(tick)

	r.mu.Lock()
	r.stats.Ticks++
	r.stats.LastTickAt = f.ReceivedAt
	r.seen[seenKey{marketID: tick.MarketID, tsMs: tick.TsMs}] = struct{}{}
	switch cls {
	case model.ClassPush:
		r.stats.Push++
	case model.ClassUpdateTail:
		r.stats.UpdateTail++
	case model.ClassMidHit:
		r.stats.MidHit++
		r.sampleLocked(&r.midHits, cls, tick)
	case model.ClassDrop:
		r.stats.Drop++
		r.sampleLocked(&r.drops, cls, tick)
	}
	r.mu.Unlock()

	if cls == model.ClassMidHit || cls == model.ClassDrop {
		r.logger.Info("anomalous classification",
			"class", cls.String(),
			"market", tick.MarketID,
			"outcome", tick.Outcome,
			"ts_ms", tick.TsMs,
			"mid", tick.Mid,
		)
	}
}

// sampleLocked appends a bounded anomaly sample. Caller holds r.mu.
func (r *Router) sampleLocked(list *[]Anomaly, cls model.Class, tick model.Tick) {
	if len(*list) >= r.cfg.SampleLimit {
		return
	}
	*list = append(*list, Anomaly{
		ID:     uuid.New(),
		Class:  cls,
		Key:    model.SeriesKey{MarketID: tick.MarketID, Outcome: tick.Outcome},
		TsMs:   tick.TsMs,
		Bucket: grid.BucketStart(tick.TsMs, r.engine.OriginMs(), r.engine.WidthMs()),
		Price:  tick.Mid,
		At:     time.Now(),
	})
}

func (r *Router) countDecodeError(event string, err error) {
	r.mu.Lock()
	r.stats.DecodeErrors++
	r.mu.Unlock()
	r.logger.Debug("failed to decode payload", "event", event, "error", err)
}

// parseTs parses an ISO-8601 timestamp into ms since epoch.
func parseTs(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}
