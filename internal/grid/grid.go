// Package grid maps timestamps to fixed-width bucket starts.
//
// Two alignments are supported: a wall-clock grid anchored at the Unix epoch,
// and an origin-aligned grid anchored at an externally supplied timestamp
// (the market's window start). Both are pure, total functions for any finite
// input. When the origin is not a multiple of the width the two grids disagree
// by a fixed offset ("grid drift"); that drift is a first-class observable,
// not a bug to correct.
package grid

// BucketStart returns the greatest grid point <= tsMs on the grid anchored at
// originMs: originMs + floor((tsMs-originMs)/widthMs)*widthMs.
func BucketStart(tsMs, originMs, widthMs int64) int64 {
	return originMs + floorDiv(tsMs-originMs, widthMs)*widthMs
}

// WallBucketStart returns the bucket start on the wall-clock grid, which is
// the origin-aligned grid with origin 0.
func WallBucketStart(tsMs, widthMs int64) int64 {
	return BucketStart(tsMs, 0, widthMs)
}

// Drift returns the fixed offset between the origin-aligned and wall-clock
// grids, normalized into [0, widthMs). Zero means the grids coincide for
// every timestamp.
func Drift(originMs, widthMs int64) int64 {
	d := originMs % widthMs
	if d < 0 {
		d += widthMs
	}
	return d
}

// floorDiv is integer division rounding toward negative infinity.
// Go's / truncates toward zero, which misplaces timestamps before the origin.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
