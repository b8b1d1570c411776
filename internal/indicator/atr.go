package indicator

import (
	"math"

	"finintelbot/internal/model"
)

// ATR calculates the Average True Range with Wilder smoothing.
// True range = max(high-low, |high-prevClose|, |low-prevClose|).
// O(1) per update.
type ATR struct {
	period    int
	count     int
	prevClose float64
	sum       float64
	current   float64
}

// NewATR creates a new ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return "ATR_" + itoa(a.period) }

func (a *ATR) Update(candle model.Candle) {
	a.count++

	if a.count == 1 {
		// No previous close yet, no true range for the first candle
		a.prevClose = candle.Close
		return
	}

	tr := candle.High - candle.Low
	if v := math.Abs(candle.High - a.prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(candle.Low - a.prevClose); v > tr {
		tr = v
	}
	a.prevClose = candle.Close

	// a.count-1 true ranges seen so far
	if a.count <= a.period+1 {
		a.sum += tr
		if a.count == a.period+1 {
			a.current = a.sum / float64(a.period)
		}
		return
	}

	// Wilder's smoothing, same recurrence as RSI averages
	p := float64(a.period)
	a.current = (a.current*(p-1) + tr) / p
}

func (a *ATR) Value() float64 { return a.current }
func (a *ATR) Ready() bool    { return a.count > a.period }
