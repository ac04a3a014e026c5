// Package api provides the REST client for the hosted data service.
//
// Endpoints used:
//   - GET /markets: resolves a slug or market id to the canonical market id
//     and the grid-origin timestamp (window start); fetched once per run
//   - GET /ticks: paged read over persisted ticks, filterable by ts > after,
//     ordered ascending; the cross-validation ground truth
//
// The client performs no automatic retries: the validator retries on its own
// schedule and metadata resolution failure degrades validation to disabled.
package api
