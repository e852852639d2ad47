package domain

import "time"

// Outcome identifies one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Market is an immutable snapshot of one Polymarket prediction market as seen
// at fetch time. A later fetch supersedes the snapshot; it is never mutated.
type Market struct {
	ID          string     `json:"market_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	YesTokenID  string     `json:"yes_token_id,omitempty"`
	NoTokenID   string     `json:"no_token_id,omitempty"`
	YesPrice    *float64   `json:"yes_price"` // nil = no current quote
	NoPrice     *float64   `json:"no_price"`  // nil = no current quote
	Active      bool       `json:"active"`
	Closed      bool       `json:"closed"`
	Volume      float64    `json:"volume"`
	Liquidity   float64    `json:"liquidity"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// IsOpen reports whether the market is open for trading.
func (m Market) IsOpen() bool {
	return m.Active && !m.Closed
}

// HasPrices reports whether both sides of the market have a current quote.
func (m Market) HasPrices() bool {
	return m.YesPrice != nil && m.NoPrice != nil
}

// TokenID returns the token ID for the given outcome side.
func (m Market) TokenID(outcome Outcome) string {
	if outcome == OutcomeYes {
		return m.YesTokenID
	}
	return m.NoTokenID
}

// Price returns the current quote for the given outcome side, or nil when the
// side has no quote.
func (m Market) Price(outcome Outcome) *float64 {
	if outcome == OutcomeYes {
		return m.YesPrice
	}
	return m.NoPrice
}

// KeywordGroup is the set of markets whose titles matched one keyword.
type KeywordGroup struct {
	Keyword string   `json:"keyword"`
	Markets []Market `json:"markets"`
}
