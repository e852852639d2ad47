package domain

import "time"

// Pair links two markets from the same keyword group that are hypothesized to
// be logically related: MarketA resolving YES implies MarketB resolves YES.
// Pairs are immutable once built; rebuilding a keyword replaces its pairs.
type Pair struct {
	ID        string    `json:"pair_id"` // "<keyword>_<seq>", e.g. "Iran_0007"
	Keyword   string    `json:"keyword"`
	MarketA   Market    `json:"market_a"` // trigger (more specific event)
	MarketB   Market    `json:"market_b"` // implied (broader event)
	Rationale string    `json:"rationale,omitempty"` // advisor free text, empty for exhaustive pairs
	CreatedAt time.Time `json:"created_at"`
}

// Verdict is the arbitrage assessment of a pair at one point in time. It is
// computed on demand from current prices and never stored; numeric fields are
// nil when a required quote is missing.
type Verdict struct {
	HasArbitrage bool     `json:"has_arbitrage"`
	BuyYesPrice  *float64 `json:"buy_yes_price"` // trigger market YES leg
	BuyNoPrice   *float64 `json:"buy_no_price"`  // implied market NO leg
	TotalCost    *float64 `json:"total_cost"`
	Profit       *float64 `json:"profit"`
	ProfitPct    *float64 `json:"profit_pct"`
}
