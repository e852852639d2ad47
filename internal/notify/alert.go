package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/pairscout/engine/internal/domain"
)

// EventArbitrage is the event type emitted when a scan finds a pair whose
// combined entry cost is under $1.
const EventArbitrage = "arbitrage_found"

// AlertOpportunity formats and dispatches an alert for one profitable pair.
// Verdicts without arbitrage are ignored so callers can feed every scan
// result through unconditionally.
func (n *Notifier) AlertOpportunity(ctx context.Context, pair domain.Pair, v domain.Verdict) error {
	if !v.HasArbitrage || v.TotalCost == nil {
		return nil
	}

	title := fmt.Sprintf("Arbitrage: %s", pair.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "YES %q @ %.3f\n", pair.MarketA.Title, *v.BuyYesPrice)
	fmt.Fprintf(&b, "NO  %q @ %.3f\n", pair.MarketB.Title, *v.BuyNoPrice)
	fmt.Fprintf(&b, "Cost $%.3f, locked profit $%.3f", *v.TotalCost, *v.Profit)
	if v.ProfitPct != nil {
		fmt.Fprintf(&b, " (%.1f%%)", *v.ProfitPct)
	}
	if pair.Rationale != "" {
		fmt.Fprintf(&b, "\nWhy: %s", pair.Rationale)
	}

	return n.Notify(ctx, EventArbitrage, title, b.String())
}
