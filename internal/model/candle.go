package model

import "time"

// Candle represents one OHLC bar at a fixed interval.
// Prices are float64 since the upstream chart API serves decimal quotes.
type Candle struct {
	TS    time.Time `json:"ts"` // bucket start time (UTC)
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Series is a chronological, fixed-interval candle sequence.
type Series []Candle

// Closes extracts the close-price series.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Last returns the most recent candle. Callers must check len(s) > 0 first.
func (s Series) Last() Candle { return s[len(s)-1] }

// LowestLow returns the minimum Low over the last n candles (inclusive of
// the latest). If the series is shorter than n, the whole series is used.
func (s Series) LowestLow(n int) float64 {
	start := len(s) - n
	if start < 0 {
		start = 0
	}
	low := s[start].Low
	for _, c := range s[start+1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

// HighestHigh returns the maximum High over the last n candles (inclusive of
// the latest). If the series is shorter than n, the whole series is used.
func (s Series) HighestHigh(n int) float64 {
	start := len(s) - n
	if start < 0 {
		start = 0
	}
	high := s[start].High
	for _, c := range s[start+1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}
