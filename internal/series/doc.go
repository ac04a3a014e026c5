// Package series implements the Series Upsert Engine.
//
// The engine owns one ordered sequence of (bucket, price) points per
// (market, outcome) key and classifies each incoming tick against it:
//
//   - PUSH: new bucket, point appended (the only path that grows the series)
//   - UPDATE_TAIL: tick lands in the currently-open tail bucket, price
//     overwritten in place (the common case for a live in-order stream)
//   - MID_HIT: tick lands in an existing non-tail bucket, price overwritten
//     without moving the point (late backfill or out-of-order delivery)
//   - DROP: tick resolves to a bucket strictly before the tail, rejected
//     with no mutation
//
// Check ordering matters and is deliberate: cheap tail check first, full
// scan second, explicit rejection of regressions rather than silent
// misplacement. The full scan is linear because series length is bounded by
// run duration over bucket width.
//
// The engine is the sole mutator of per-key state. All mutation happens
// under a single mutex; readers get copies.
package series
