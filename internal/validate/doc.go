// Package validate implements the Cross-Validation Poller.
//
// On a fixed period the poller pages through the persisted tick ground truth
// (ts > watermark, ascending, bounded page size) and checks each row against
// the set of ticks the stream actually delivered. Rows present in storage but
// never seen live are recorded as "missed by stream" — a different signal
// from DROP: a DROP is a live classification rejection, a miss means the
// stream never delivered the tick at all.
//
// The watermark advances to the last row's timestamp on every successful
// page, even when the page yields zero comparisons, so a range is never
// scanned twice. On transport failure it logs and retries on the next
// scheduled tick without advancing.
package validate
