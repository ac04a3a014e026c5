package validate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitt/chartwatch/internal/model"
)

// TickSource is a paged read interface over persisted ticks.
type TickSource interface {
	// TicksSince returns up to limit ticks with ts strictly greater than
	// afterTsMs, ordered ascending.
	TicksSince(ctx context.Context, marketID string, afterTsMs int64, limit int) ([]model.PersistedTick, error)
}

// SeenSource reports which ticks the stream delivered.
type SeenSource interface {
	Seen(marketID string, tsMs int64) bool
}

// MissedTick is one persisted tick the stream never delivered.
type MissedTick struct {
	ID   uuid.UUID
	Tick model.PersistedTick
	At   time.Time // wall time the miss was detected
}

// Stats contains poller counters.
type Stats struct {
	Polls       int64 // completed poll cycles
	PollErrors  int64 // failed cycles (watermark not advanced)
	Compared    int64 // persisted rows checked against the seen set
	MissedTotal int64 // rows never delivered by the stream
	WatermarkMs int64 // last-seen persisted timestamp
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // poll period (default: 30s)
	PageSize    int           // rows per page (default: 500)
	MissedLimit int           // bound on the recorded missed list (default: 100)
	Timeout     time.Duration // per-cycle timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		PageSize:    500,
		MissedLimit: 100,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically reconciles persisted ticks against the stream.
type Poller struct {
	cfg      Config
	marketID string
	source   TickSource
	seen     SeenSource
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	stats       Stats
	missed      []MissedTick
	missedKeys  map[missKey]struct{}
	watermarkMs int64
}

type missKey struct {
	marketID string
	tsMs     int64
}

// New creates a poller for one market. startTsMs seeds the watermark so only
// ticks from the run window are compared.
func New(cfg Config, marketID string, source TickSource, seen SeenSource, startTsMs int64, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.MissedLimit < 1 {
		cfg.MissedLimit = DefaultConfig().MissedLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:         cfg,
		marketID:    marketID,
		source:      source,
		seen:        seen,
		logger:      logger,
		missedKeys:  make(map[missKey]struct{}),
		watermarkMs: startTsMs,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("cross-validation poller started",
		"market", p.marketID,
		"interval", p.cfg.Interval,
		"page_size", p.cfg.PageSize,
	)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("cross-validation poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a copy of the current counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.WatermarkMs = p.watermarkMs
	return s
}

// Missed returns the recorded missed ticks.
func (p *Poller) Missed() []MissedTick {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MissedTick, len(p.missed))
	copy(out, p.missed)
	return out
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll runs one reconciliation cycle, paging until a short page.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	for {
		p.mu.Lock()
		wm := p.watermarkMs
		p.mu.Unlock()

		rows, err := p.source.TicksSince(ctx, p.marketID, wm, p.cfg.PageSize)
		if err != nil {
			p.mu.Lock()
			p.stats.PollErrors++
			p.mu.Unlock()
			p.logger.Warn("ground-truth poll failed, will retry next period",
				"watermark_ms", wm,
				"error", err,
			)
			return
		}
		if len(rows) == 0 {
			break
		}

		p.reconcile(rows)

		if len(rows) < p.cfg.PageSize {
			break
		}
	}

	p.mu.Lock()
	p.stats.Polls++
	p.mu.Unlock()
}

// reconcile checks one page against the seen set and advances the watermark.
func (p *Poller) reconcile(rows []model.PersistedTick) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, row := range rows {
		p.stats.Compared++
		if p.seen.Seen(row.MarketID, row.TsMs) {
			continue
		}

		key := missKey{marketID: row.MarketID, tsMs: row.TsMs}
		if _, dup := p.missedKeys[key]; dup {
			continue
		}
		p.missedKeys[key] = struct{}{}
		p.stats.MissedTotal++

		if len(p.missed) < p.cfg.MissedLimit {
			p.missed = append(p.missed, MissedTick{
				ID:   uuid.New(),
				Tick: row,
				At:   now,
			})
		}
	}

	// Advance even when every row was filtered out: never re-scan a range.
	p.watermarkMs = rows[len(rows)-1].TsMs
}
