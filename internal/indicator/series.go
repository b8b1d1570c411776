package indicator

import (
	"math"

	"finintelbot/internal/model"
)

// EMASeries returns the EMA(period) value series for the candle series.
// Positions before the indicator is ready are NaN.
func EMASeries(s model.Series, period int) []float64 {
	return runSeries(NewEMA(period), s)
}

// RSISeries returns the RSI(period) value series. Positions before the
// indicator is ready are NaN.
func RSISeries(s model.Series, period int) []float64 {
	return runSeries(NewRSI(period), s)
}

// ATRSeries returns the ATR(period) value series. Positions before the
// indicator is ready are NaN.
func ATRSeries(s model.Series, period int) []float64 {
	return runSeries(NewATR(period), s)
}

func runSeries(ind Indicator, s model.Series) []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		ind.Update(c)
		if ind.Ready() {
			out[i] = ind.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Snapshot holds the indicator values at the latest bar of a series, plus
// the structural low/high of the trailing window. Recomputed every cycle,
// never persisted.
type Snapshot struct {
	EMA20      float64
	EMA50      float64
	EMA200     float64
	RSI14      float64
	ATR14      float64
	RecentLow  float64
	RecentHigh float64
}

// Compute evaluates the standard indicator set at the latest bar of s in a
// single pass. recentBars is the window for RecentLow/RecentHigh (inclusive
// of the latest bar). Values whose indicator never became ready are NaN.
func Compute(s model.Series, recentBars int) Snapshot {
	ema20 := NewEMA(20)
	ema50 := NewEMA(50)
	ema200 := NewEMA(200)
	rsi14 := NewRSI(14)
	atr14 := NewATR(14)

	for _, c := range s {
		ema20.Update(c)
		ema50.Update(c)
		ema200.Update(c)
		rsi14.Update(c)
		atr14.Update(c)
	}

	return Snapshot{
		EMA20:      readyValue(ema20),
		EMA50:      readyValue(ema50),
		EMA200:     readyValue(ema200),
		RSI14:      readyValue(rsi14),
		ATR14:      readyValue(atr14),
		RecentLow:  s.LowestLow(recentBars),
		RecentHigh: s.HighestHigh(recentBars),
	}
}

func readyValue(ind Indicator) float64 {
	if !ind.Ready() {
		return math.NaN()
	}
	return ind.Value()
}

// itoa is a minimal int-to-string without importing strconv in hot path.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
