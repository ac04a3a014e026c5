// Package model defines shared data types used across chartwatch.
//
// Conventions:
//   - Prices: float64 mid-prices in [0, 1] as delivered by the feed
//   - Timestamps: int64 milliseconds since Unix epoch (fields suffixed Ms)
//   - Keys: a series is identified by (market id, outcome) as a struct,
//     never as a concatenated string
package model
