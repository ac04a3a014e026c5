package report

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitt/chartwatch/internal/grid"
	"github.com/mwhitt/chartwatch/internal/ingest"
	"github.com/mwhitt/chartwatch/internal/series"
	"github.com/mwhitt/chartwatch/internal/validate"
)

// EngineSource is the read-only view of the classification engine.
type EngineSource interface {
	Snapshot() []series.OutcomeSnapshot
	WidthMs() int64
	OriginMs() int64
}

// RouterSource is the read-only view of the ingest router.
type RouterSource interface {
	Stats() ingest.Stats
	MidHits() []ingest.Anomaly
	Drops() []ingest.Anomaly
}

// ValidationSource is the read-only view of the cross-validation poller.
type ValidationSource interface {
	Stats() validate.Stats
	Missed() []validate.MissedTick
}

// Notifier delivers the end-of-run alert to an external channel.
type Notifier interface {
	Send(text string) error
}

// Config holds reporter configuration.
type Config struct {
	Interval     time.Duration // summary period (default: 60s)
	FlatEps      float64       // price delta treated as unchanged (default: 1e-4)
	FlatRunLimit int           // flat run length above which a series is flagged (default: 5)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		FlatEps:      1e-4,
		FlatRunLimit: 5,
	}
}

// Reporter periodically summarizes the run and writes the final diagnostic
// report on shutdown. It only reads from its sources.
type Reporter struct {
	cfg      Config
	runID    uuid.UUID
	engine   EngineSource
	router   RouterSource
	valid    ValidationSource // nil when cross-validation is disabled
	notifier Notifier         // nil when no alert channel is configured
	sink     *Sink
	logger   *slog.Logger

	done chan struct{}
	wg   sync.WaitGroup

	stopOnce sync.Once
}

// New creates a reporter. valid and notifier may be nil.
func New(cfg Config, engine EngineSource, router RouterSource, valid ValidationSource, notifier Notifier, sink *Sink, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FlatEps <= 0 {
		cfg.FlatEps = DefaultConfig().FlatEps
	}
	if cfg.FlatRunLimit < 1 {
		cfg.FlatRunLimit = DefaultConfig().FlatRunLimit
	}
	return &Reporter{
		cfg:      cfg,
		runID:    uuid.New(),
		engine:   engine,
		router:   router,
		valid:    valid,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RunID returns this run's identifier.
func (r *Reporter) RunID() uuid.UUID { return r.runID }

// Start begins periodic summaries.
func (r *Reporter) Start() {
	r.wg.Add(1)
	go r.run()

	r.logger.Info("reporter started", "run_id", r.runID, "interval", r.cfg.Interval)
}

// Stop halts the summary loop and writes the final report. Safe to call once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.final()
	})
}

func (r *Reporter) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.summary()
		}
	}
}

// summary writes one periodic health snapshot.
func (r *Reporter) summary() {
	stats := r.router.Stats()
	snaps := r.engine.Snapshot()

	r.sink.Printf("[run %s] summary: keys=%d ticks=%d discarded=%d decode_errors=%d stream_errors=%d",
		shortID(r.runID), len(snaps), stats.Ticks, stats.Discarded, stats.DecodeErrors, stats.StreamErrors)

	for _, s := range snaps {
		r.sink.Printf("  %s", r.keyLine(s))
	}

	if r.valid != nil {
		vs := r.valid.Stats()
		r.sink.Printf("  validation: polls=%d errors=%d compared=%d missed=%d",
			vs.Polls, vs.PollErrors, vs.Compared, vs.MissedTotal)
	}
}

// keyLine formats one per-key summary line.
func (r *Reporter) keyLine(s series.OutcomeSnapshot) string {
	c := s.Counts
	line := fmt.Sprintf("%s/%s: points=%d push=%d update_tail=%d mid_hit=%d (%s) drop=%d (%s)",
		s.Key.MarketID, s.Key.Outcome,
		len(s.Points), c.Push, c.UpdateTail,
		c.MidHit, pct(c.MidHit, c.Total()),
		c.Drop, pct(c.Drop, c.Total()))

	if tail, ok := s.TailPrice(); ok {
		line += fmt.Sprintf(" tail=%.4f", tail)
	}
	if avg, max, ok := avgMax(s.Gaps); ok {
		line += fmt.Sprintf(" gap avg=%s max=%s", fmtMs(avg), fmtMs(float64(max)))
	}
	if avg, max, ok := avgMax(s.BucketGaps); ok {
		line += fmt.Sprintf(" bucket avg=%s max=%s", fmtMs(avg), fmtMs(float64(max)))
	}
	return line
}

// final writes the end-of-run report and fires the alert, if configured.
func (r *Reporter) final() {
	stats := r.router.Stats()
	snaps := r.engine.Snapshot()
	elapsed := time.Since(stats.StartedAt).Round(time.Second)

	r.sink.Printf("=== final report [run %s] ===", shortID(r.runID))
	r.sink.Printf("elapsed=%s ticks=%d trades=%d movements=%d discarded=%d decode_errors=%d stream_errors=%d unknown=%d",
		elapsed, stats.Ticks, stats.Trades, stats.Movements,
		stats.Discarded, stats.DecodeErrors, stats.StreamErrors, stats.Unknown)

	drift := grid.Drift(r.engine.OriginMs(), r.engine.WidthMs())
	if drift == 0 {
		r.sink.Printf("grid: width=%s origin=%d (wall-aligned)", fmtMs(float64(r.engine.WidthMs())), r.engine.OriginMs())
	} else {
		r.sink.Printf("grid: width=%s origin=%d drift=%s off wall alignment",
			fmtMs(float64(r.engine.WidthMs())), r.engine.OriginMs(), fmtMs(float64(drift)))
	}

	for _, s := range snaps {
		r.sink.Printf("%s", r.keyLine(s))
		if s.AlignSplits > 0 {
			r.sink.Printf("  align splits: %d ticks landed in different wall vs origin buckets", s.AlignSplits)
		}
		if length, start := LongestFlatRun(s.Points, r.cfg.FlatEps); length > r.cfg.FlatRunLimit {
			r.sink.Printf("  FLAT RUN: %d consecutive unchanged points starting at bucket %d (possible stale feed)",
				length, s.Points[start].BucketStartMs)
		}
	}

	r.anomalies("mid-hit", r.router.MidHits())
	r.anomalies("drop", r.router.Drops())

	if r.valid != nil {
		vs := r.valid.Stats()
		r.sink.Printf("validation: polls=%d errors=%d compared=%d missed=%d watermark_ms=%d",
			vs.Polls, vs.PollErrors, vs.Compared, vs.MissedTotal, vs.WatermarkMs)
		for _, m := range r.valid.Missed() {
			r.sink.Printf("  missed by stream: %s/%s ts=%d mid=%.4f",
				m.Tick.MarketID, m.Tick.Outcome, m.Tick.TsMs, m.Tick.Mid)
		}
	}

	r.sink.Printf("=== end of report ===")

	r.alert(stats)
}

// anomalies lists one class of sampled anomalies.
func (r *Reporter) anomalies(label string, list []ingest.Anomaly) {
	if len(list) == 0 {
		return
	}
	r.sink.Printf("%s samples (%d):", label, len(list))
	for _, a := range list {
		r.sink.Printf("  %s/%s ts=%d bucket=%d price=%.4f",
			a.Key.MarketID, a.Key.Outcome, a.TsMs, a.Bucket, a.Price)
	}
}

// alert sends a compact end-of-run message when anything looked wrong.
func (r *Reporter) alert(stats ingest.Stats) {
	if r.notifier == nil {
		return
	}

	var missed int64
	if r.valid != nil {
		missed = r.valid.Stats().MissedTotal
	}
	if stats.MidHit == 0 && stats.Drop == 0 && missed == 0 {
		return
	}

	text := fmt.Sprintf("chartwatch run %s finished: %d ticks, %d mid-hits, %d drops, %d missed by stream",
		shortID(r.runID), stats.Ticks, stats.MidHit, stats.Drop, missed)
	if err := r.notifier.Send(text); err != nil {
		r.logger.Warn("failed to send end-of-run alert", "error", err)
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// pct formats a share of total as a percentage; "0.0%" when total is zero.
func pct(part, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(part)/float64(total))
}

// avgMax returns the mean and maximum of a sample, ok=false when empty.
func avgMax(samples []int64) (avg float64, max int64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, false
	}
	var sum int64
	for _, s := range samples {
		sum += s
		if s > max {
			max = s
		}
	}
	return float64(sum) / float64(len(samples)), max, true
}

// fmtMs renders a millisecond quantity as a human duration.
func fmtMs(ms float64) string {
	return time.Duration(ms * float64(time.Millisecond)).Round(time.Millisecond).String()
}
