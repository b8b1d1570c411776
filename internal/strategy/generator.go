// Package strategy turns a candle series into directional trade signals.
//
// The generator is stateless across cycles: every invocation re-evaluates
// from scratch, and persistence of what was already emitted lives entirely
// in the dedup store.
package strategy

import (
	"fmt"
	"math"
	"time"

	"finintelbot/internal/indicator"
	"finintelbot/internal/model"
)

const (
	// MinBars is the lookback floor below which indicators are not trusted.
	MinBars = 210

	// RecentBars is the window for structural support/resistance levels.
	RecentBars = 10

	atrMult  = 1.2
	rrTarget = 1.5
)

// Generator produces zero or more signals per cycle for a single symbol.
type Generator struct {
	symbol string
	window SessionWindow
}

// NewGenerator creates a signal generator gated by the given session window.
func NewGenerator(symbol string, window SessionWindow) *Generator {
	return &Generator{symbol: symbol, window: window}
}

// Generate evaluates the entry rules against the latest bar of series.
// Returns nil when now is outside the session window or the series is
// shorter than MinBars. Long and short rules are evaluated independently;
// exclusivity is not enforced here.
func (g *Generator) Generate(series model.Series, now time.Time) []model.Signal {
	if !g.window.Contains(now) {
		return nil
	}
	if len(series) < MinBars {
		return nil
	}
	snap := indicator.Compute(series, RecentBars)
	return g.evaluate(snap, series.Last())
}

// evaluate applies the long and short entry rules to one snapshot + latest
// bar. Split out from Generate so rule behavior is testable with synthetic
// indicator values.
func (g *Generator) evaluate(snap indicator.Snapshot, last model.Candle) []model.Signal {
	if hasNaN(snap.EMA20, snap.EMA50, snap.EMA200, snap.RSI14, snap.ATR14) {
		return nil
	}

	price := last.Close
	var signals []model.Signal

	// Long: price above long-term trend, fast above slow, momentum up,
	// bullish bar. Stop is the tighter of structural support and the
	// volatility stop.
	if price > snap.EMA200 && snap.EMA20 > snap.EMA50 && snap.RSI14 > 55 && last.Bullish() {
		stop := math.Max(snap.RecentLow, price-atrMult*snap.ATR14)
		risk := price - stop
		if risk > 0 {
			signals = append(signals, model.Signal{
				Symbol:     g.symbol,
				Side:       model.SideBuy,
				Entry:      round2(price),
				Stop:       round2(stop),
				TakeProfit: round2(price + rrTarget*risk),
				RiskReward: rrTarget,
				Reason: fmt.Sprintf("Trend up (EMA200), EMA20>EMA50, RSI14=%.1f>55, bullish candle. ATR14=%.1f.",
					snap.RSI14, snap.ATR14),
			})
		}
	}

	// Short: symmetric.
	if price < snap.EMA200 && snap.EMA20 < snap.EMA50 && snap.RSI14 < 45 && last.Bearish() {
		stop := math.Min(snap.RecentHigh, price+atrMult*snap.ATR14)
		risk := stop - price
		if risk > 0 {
			signals = append(signals, model.Signal{
				Symbol:     g.symbol,
				Side:       model.SideSell,
				Entry:      round2(price),
				Stop:       round2(stop),
				TakeProfit: round2(price - rrTarget*risk),
				RiskReward: rrTarget,
				Reason: fmt.Sprintf("Trend down (EMA200), EMA20<EMA50, RSI14=%.1f<45, bearish candle. ATR14=%.1f.",
					snap.RSI14, snap.ATR14),
			})
		}
	}

	return signals
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hasNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
