// Package arbitrage implements the two-sided arbitrage test for implication
// pairs.
//
// Given a pair where MarketA resolving YES implies MarketB resolves YES, the
// trade is: buy YES on the trigger (A) and NO on the implied (B). Exactly one
// leg pays out $1 whichever way events resolve, so whenever the combined
// entry cost is under $1 the difference is locked in. Leg selection is a
// policy fixed here, not in the UI.
package arbitrage

import "github.com/pairscout/engine/internal/domain"

// Evaluate computes the arbitrage verdict for a pair from its current prices.
// A verdict with HasArbitrage=false and nil numeric fields means a required
// quote was missing; prices are never fabricated. Pure and deterministic.
func Evaluate(pair domain.Pair) domain.Verdict {
	yes := pair.MarketA.YesPrice
	no := pair.MarketB.NoPrice

	if yes == nil || no == nil {
		return domain.Verdict{HasArbitrage: false}
	}

	buyYes := *yes
	buyNo := *no
	totalCost := buyYes + buyNo
	profit := 1.0 - totalCost

	v := domain.Verdict{
		// Strict: total cost of exactly $1.00 returns exactly $1.00.
		HasArbitrage: totalCost < 1.0,
		BuyYesPrice:  &buyYes,
		BuyNoPrice:   &buyNo,
		TotalCost:    &totalCost,
		Profit:       &profit,
	}
	if totalCost > 0 {
		pct := profit / totalCost * 100
		v.ProfitPct = &pct
	}
	return v
}
