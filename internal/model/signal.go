package model

// Side represents the direction of a trade signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is a directional trade recommendation produced by the strategy
// engine. All numeric fields are rounded to 2 decimal places at creation
// so that display output and dedup fingerprints agree. Signals are
// immutable once created.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Entry      float64 `json:"entry"`
	Stop       float64 `json:"stop"`
	TakeProfit float64 `json:"tp"`
	RiskReward float64 `json:"rr"`
	Reason     string  `json:"reason"`
}
