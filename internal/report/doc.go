// Package report implements the Diagnostic Reporter.
//
// The reporter is strictly read-only over the engine, router, and validator:
// it aggregates their counters and series snapshots into periodic summaries
// and a final report, written as timestamp-prefixed human-readable lines to
// the console and an append-only log file. No machine-readable schema is
// guaranteed.
package report
