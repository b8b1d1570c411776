// Package indicator provides technical indicator calculations over candle data.
//
// Each indicator exists in two forms: a streaming type with O(1) Update, and
// a series function that maps a candle series to an equal-length value series
// with NaN at positions where history is insufficient.
package indicator

import "finintelbot/internal/model"

// Indicator is the interface for all streaming technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "EMA_20", "RSI_14").
	Name() string

	// Update feeds a new candle and recalculates.
	Update(candle model.Candle)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
