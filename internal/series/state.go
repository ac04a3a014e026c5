package series

import (
	"github.com/mwhitt/chartwatch/internal/model"
)

// Counts holds one counter per classification outcome.
type Counts struct {
	Push       int64
	UpdateTail int64
	MidHit     int64
	Drop       int64
}

// Total returns the number of classified ticks.
func (c Counts) Total() int64 {
	return c.Push + c.UpdateTail + c.MidHit + c.Drop
}

func (c *Counts) add(cls model.Class) {
	switch cls {
	case model.ClassPush:
		c.Push++
	case model.ClassUpdateTail:
		c.UpdateTail++
	case model.ClassMidHit:
		c.MidHit++
	case model.ClassDrop:
		c.Drop++
	}
}

// outcomeState is the per-key state owned by the engine. Created lazily on
// the first tick for a key and kept for the lifetime of the run.
type outcomeState struct {
	points []model.SeriesPoint

	lastTickTsMs int64 // timestamp of the last processed tick (incl. DROPs)
	counts       Counts

	gaps       []int64 // inter-tick intervals, data time (ms)
	bucketGaps []int64 // intervals between successive PUSHes, wall time (ms)

	lastBucketWallMs int64 // wall time the last new bucket was created

	alignSplits int64 // ticks whose wall and origin buckets disagreed
}

// classify applies the tick to the series and returns the classification.
// Tie-break order: tail check, full scan, regression check, append.
func (st *outcomeState) classify(bucketMs int64, price float64) model.Class {
	n := len(st.points)

	if n > 0 && st.points[n-1].BucketStartMs == bucketMs {
		st.points[n-1].Price = price
		return model.ClassUpdateTail
	}

	for i := range st.points {
		if st.points[i].BucketStartMs == bucketMs {
			// Overwrite in place; the point keeps its position in the
			// sequence even though it is not time-ordered relative to it.
			st.points[i].Price = price
			return model.ClassMidHit
		}
	}

	if n > 0 && bucketMs < st.points[n-1].BucketStartMs {
		return model.ClassDrop
	}

	st.points = append(st.points, model.SeriesPoint{BucketStartMs: bucketMs, Price: price})
	return model.ClassPush
}

// OutcomeSnapshot is a read-only copy of one key's state.
type OutcomeSnapshot struct {
	Key    model.SeriesKey
	Points []model.SeriesPoint

	LastTickTsMs int64
	Counts       Counts

	Gaps       []int64
	BucketGaps []int64

	AlignSplits int64
}

// TailPrice returns the current tail price, or 0 and false for an empty series.
func (s OutcomeSnapshot) TailPrice() (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[len(s.Points)-1].Price, true
}

func (st *outcomeState) snapshot(key model.SeriesKey) OutcomeSnapshot {
	snap := OutcomeSnapshot{
		Key:          key,
		Points:       make([]model.SeriesPoint, len(st.points)),
		LastTickTsMs: st.lastTickTsMs,
		Counts:       st.counts,
		Gaps:         make([]int64, len(st.gaps)),
		BucketGaps:   make([]int64, len(st.bucketGaps)),
		AlignSplits:  st.alignSplits,
	}
	copy(snap.Points, st.points)
	copy(snap.Gaps, st.gaps)
	copy(snap.BucketGaps, st.bucketGaps)
	return snap
}
