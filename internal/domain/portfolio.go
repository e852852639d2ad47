package domain

import "time"

// Position is one leg of a simulated arbitrage trade held in the portfolio.
type Position struct {
	ID          string    `json:"position_id"`
	PairID      string    `json:"pair_id"`
	MarketID    string    `json:"market_id"`
	MarketTitle string    `json:"market_title,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	Shares      float64   `json:"shares"`
	AvgPrice    float64   `json:"avg_price"`
	CostBasis   float64   `json:"cost_basis"` // == Shares * AvgPrice at open
	OpenedAt    time.Time `json:"opened_at"`
}

// Portfolio is the full simulated ledger state. All trades are paper only;
// it is mutated exclusively through the ledger's apply-trade path.
type Portfolio struct {
	Cash         float64    `json:"cash"`
	StartingCash float64    `json:"starting_cash"`
	Positions    []Position `json:"positions"`
	TradeCount   int        `json:"trade_count"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the ledger's internal slice.
func (p Portfolio) Clone() Portfolio {
	out := p
	out.Positions = make([]Position, len(p.Positions))
	copy(out.Positions, p.Positions)
	return out
}

// PositionView is a position annotated with its current market value.
// CurrentPrice/CurrentValue/PnL are nil when no live quote is available:
// nil means "unknown", zero would mean "known and worthless".
type PositionView struct {
	Position
	CurrentPrice *float64 `json:"current_price"`
	CurrentValue *float64 `json:"current_value"`
	PnL          *float64 `json:"pnl"`
}

// PortfolioView is the mark-to-market valuation of a portfolio. Positions
// without a quote contribute zero to PositionValue but keep their nil fields.
type PortfolioView struct {
	Cash          float64        `json:"cash"`
	StartingCash  float64        `json:"starting_cash"`
	Positions     []PositionView `json:"positions"`
	PositionValue float64        `json:"position_value"`
	TotalValue    float64        `json:"total_value"`
	TotalPnL      float64        `json:"total_pnl"`
	TradeCount    int            `json:"trade_count"`
}
