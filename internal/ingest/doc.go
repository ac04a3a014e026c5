// Package ingest routes decoded stream frames to the series engine.
//
// The router is the single consumer of the transport's frame channel; all
// state mutation (series, counters, the seen set used for cross-validation)
// happens on its goroutine or under its mutex. Recognized events:
//
//	tick      -> validated, classified by the engine, counted
//	trade     -> counted only
//	movement  -> logged, not classified
//	error     -> counted, logged as an anomaly
//
// A tick with an unparseable timestamp or a null price is discarded before
// classification and touches no classification or gap statistics.
package ingest
