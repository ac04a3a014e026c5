// Package database provides read-only Postgres access to the persisted tick
// ground truth.
//
// chartwatch never writes: the ingestion service owns the ticks table. The
// only query is the validator's watermark page scan over
// (market_id, outcome, ts, mid), with ts stored as bigint milliseconds.
package database
