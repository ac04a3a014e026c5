package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/mwhitt/chartwatch/internal/model"
	"github.com/mwhitt/chartwatch/internal/series"
	"github.com/mwhitt/chartwatch/internal/stream"
)

func newTestRouter(input <-chan stream.Frame) (*Router, *series.Engine) {
	engine := series.NewEngine(series.Config{WidthMs: 60_000}, nil)
	return NewRouter(DefaultConfig(), input, engine, nil), engine
}

func frame(event, data string) stream.Frame {
	return stream.Frame{Event: event, Data: []byte(data), ReceivedAt: time.Now()}
}

func runFrames(t *testing.T, frames ...stream.Frame) (*Router, *series.Engine) {
	t.Helper()

	input := make(chan stream.Frame, len(frames))
	for _, f := range frames {
		input <- f
	}
	close(input)

	r, engine := newTestRouter(input)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	return r, engine
}

func TestRouter_TickClassified(t *testing.T) {
	r, engine := runFrames(t,
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:00Z","mid":0.5}`),
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:01:00Z","mid":0.6}`),
	)

	stats := r.Stats()
	if stats.Ticks != 2 {
		t.Errorf("Ticks = %d, want 2", stats.Ticks)
	}
	if stats.Push != 2 {
		t.Errorf("Push = %d, want 2", stats.Push)
	}

	snaps := engine.Snapshot()
	if len(snaps) != 1 || len(snaps[0].Points) != 2 {
		t.Fatalf("engine snapshots = %+v, want one series of 2 points", snaps)
	}
}

func TestRouter_NullOutcomeNormalized(t *testing.T) {
	_, engine := runFrames(t,
		frame("tick", `{"market_id":"m1","outcome":null,"ts":"1970-01-01T00:00:00Z","mid":0.5}`),
	)

	snaps := engine.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("series count = %d, want 1", len(snaps))
	}
	if snaps[0].Key != (model.SeriesKey{MarketID: "m1", Outcome: ""}) {
		t.Errorf("key = %+v, want empty-outcome placeholder", snaps[0].Key)
	}
}

func TestRouter_InvalidTickDiscardedBeforeEngine(t *testing.T) {
	r, engine := runFrames(t,
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"not-a-time","mid":0.5}`),
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:00Z","mid":null}`),
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:00Z"}`),
	)

	stats := r.Stats()
	if stats.Discarded != 3 {
		t.Errorf("Discarded = %d, want 3", stats.Discarded)
	}
	if stats.Ticks != 0 {
		t.Errorf("Ticks = %d, want 0", stats.Ticks)
	}
	if engine.Keys() != 0 {
		t.Errorf("engine has %d keys, want 0 (discards never reach it)", engine.Keys())
	}
}

func TestRouter_MalformedJSONDropped(t *testing.T) {
	r, _ := runFrames(t,
		frame("tick", `{"market_id":`),
		frame("trade", `{}`),
	)

	stats := r.Stats()
	if stats.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", stats.DecodeErrors)
	}
	if stats.Trades != 1 {
		t.Errorf("Trades = %d, want 1 (stream continues past bad payloads)", stats.Trades)
	}
}

func TestRouter_EventCounters(t *testing.T) {
	r, _ := runFrames(t,
		frame("trade", `{}`),
		frame("trade", `{}`),
		frame("movement", `{"market_id":"m1","outcome":"YES","window_type":"aligned","window_start":"1970-01-01T00:00:00Z","window_end":"1970-01-01T00:03:00Z"}`),
		frame("error", `{"message":"upstream hiccup"}`),
		frame("mystery", `{}`),
	)

	stats := r.Stats()
	if stats.Trades != 2 {
		t.Errorf("Trades = %d, want 2", stats.Trades)
	}
	if stats.Movements != 1 {
		t.Errorf("Movements = %d, want 1", stats.Movements)
	}
	if stats.StreamErrors != 1 {
		t.Errorf("StreamErrors = %d, want 1", stats.StreamErrors)
	}
	if stats.Unknown != 1 {
		t.Errorf("Unknown = %d, want 1", stats.Unknown)
	}
}

func TestRouter_SeenSetPopulated(t *testing.T) {
	r, _ := runFrames(t,
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:30Z","mid":0.5}`),
	)

	if !r.Seen("m1", 30_000) {
		t.Error("Seen(m1, 30000) = false, want true")
	}
	if r.Seen("m1", 31_000) {
		t.Error("Seen(m1, 31000) = true, want false")
	}
	if r.Seen("m2", 30_000) {
		t.Error("Seen(m2, 30000) = true, want false")
	}
}

func TestRouter_AnomalySampling(t *testing.T) {
	r, _ := runFrames(t,
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:00Z","mid":0.5}`),
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:02:00Z","mid":0.6}`),
		// Bucket 60000 was skipped, so this regresses behind the tail: DROP.
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:01:00Z","mid":0.7}`),
		// Lands in the existing first bucket: MID_HIT.
		frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:30Z","mid":0.8}`),
	)

	drops := r.Drops()
	if len(drops) != 1 {
		t.Fatalf("drops = %d, want 1", len(drops))
	}
	if drops[0].TsMs != 60_000 || drops[0].Bucket != 60_000 {
		t.Errorf("drop sample = %+v", drops[0])
	}

	midHits := r.MidHits()
	if len(midHits) != 1 {
		t.Fatalf("midHits = %d, want 1", len(midHits))
	}
	if midHits[0].Bucket != 0 || midHits[0].Price != 0.8 {
		t.Errorf("midhit sample = %+v", midHits[0])
	}
	if midHits[0].ID == drops[0].ID {
		t.Error("anomaly IDs collide")
	}
}

func TestRouter_SampleLimitBounds(t *testing.T) {
	input := make(chan stream.Frame, 20)
	input <- frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T01:00:00Z","mid":0.5}`)
	for i := 0; i < 10; i++ {
		// All regress behind the tail: DROPs.
		input <- frame("tick", `{"market_id":"m1","outcome":"YES","ts":"1970-01-01T00:00:01Z","mid":0.1}`)
	}
	close(input)

	engine := series.NewEngine(series.Config{WidthMs: 60_000}, nil)
	r := NewRouter(Config{SampleLimit: 3}, input, engine, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := len(r.Drops()); got != 3 {
		t.Errorf("drop samples = %d, want 3 (bounded)", got)
	}
	if r.Stats().Drop != 10 {
		t.Errorf("Drop counter = %d, want 10 (counting is unbounded)", r.Stats().Drop)
	}
}
