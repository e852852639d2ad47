package domain

import "time"

// TradeLeg records one side of an executed paper trade.
type TradeLeg struct {
	MarketID string  `json:"market_id"`
	Outcome  Outcome `json:"outcome"`
	Price    float64 `json:"price"`
	Shares   float64 `json:"shares"`
	Cost     float64 `json:"cost"`
}

// TradeRecord is the receipt for one applied paper trade: both legs of the
// arbitrage bought at their observed prices.
type TradeRecord struct {
	ID         string    `json:"trade_id"`
	PairID     string    `json:"pair_id"`
	Amount     float64   `json:"amount"` // total cash debited across both legs
	YesLeg     TradeLeg  `json:"yes_leg"`
	NoLeg      TradeLeg  `json:"no_leg"`
	ExecutedAt time.Time `json:"executed_at"`
}
