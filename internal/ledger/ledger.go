// Package ledger maintains the simulated paper-trading portfolio: cash, open
// positions, and mark-to-market valuation. It is pure in-memory bookkeeping;
// persistence and price lookups live with the caller.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pairscout/engine/internal/arbitrage"
	"github.com/pairscout/engine/internal/domain"
)

// DefaultStartingCash is the paper bankroll a fresh portfolio opens with.
const DefaultStartingCash = 10000.0

// PriceLookup resolves the current price for one side of a market. A nil
// result means no quote is available; positions are then valued as unknown,
// never as zero.
type PriceLookup func(marketID string, outcome domain.Outcome) *float64

// Ledger owns the portfolio state. ApplyTrade's read-verify-write sequence
// runs under one mutex so concurrent trades serialize and readers never see
// a torn state (cash debited without positions, or vice versa).
type Ledger struct {
	mu           sync.Mutex
	portfolio    domain.Portfolio
	startingCash float64
}

// New creates a Ledger with an empty portfolio holding startingCash. A
// non-positive startingCash falls back to DefaultStartingCash.
func New(startingCash float64) *Ledger {
	if startingCash <= 0 {
		startingCash = DefaultStartingCash
	}
	return &Ledger{
		portfolio: domain.Portfolio{
			Cash:         startingCash,
			StartingCash: startingCash,
		},
		startingCash: startingCash,
	}
}

// Restore replaces the ledger state with a previously persisted portfolio.
func (l *Ledger) Restore(p domain.Portfolio) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.StartingCash <= 0 {
		p.StartingCash = l.startingCash
	}
	l.portfolio = p.Clone()
}

// Snapshot returns a deep copy of the current portfolio state.
func (l *Ledger) Snapshot() domain.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.portfolio.Clone()
}

// ApplyTrade executes a paper trade on the given pair, which must carry the
// prices observed at execution time. The amount is the total cash debited,
// split 50/50 across the trigger-YES and implied-NO legs.
//
// The arbitrage condition is re-evaluated here rather than trusted from the
// client: a pair whose opportunity has disappeared fails with ErrNoArbitrage
// and leaves the portfolio untouched. All failures are full no-ops.
func (l *Ledger) ApplyTrade(pair domain.Pair, amount float64) (domain.TradeRecord, domain.Portfolio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("ledger: amount %.2f: %w", amount, domain.ErrInvalidAmount)
	}
	if amount > l.portfolio.Cash {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf(
			"ledger: need %.2f but have %.2f: %w", amount, l.portfolio.Cash, domain.ErrInsufficientFunds)
	}
	if pair.MarketA.ID == "" || pair.MarketB.ID == "" || pair.MarketA.ID == pair.MarketB.ID {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("ledger: pair %s: %w", pair.ID, domain.ErrInvalidPair)
	}

	verdict := arbitrage.Evaluate(pair)
	if verdict.TotalCost == nil {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("ledger: pair %s: %w", pair.ID, domain.ErrMissingPrice)
	}
	if !verdict.HasArbitrage {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("ledger: pair %s: %w", pair.ID, domain.ErrNoArbitrage)
	}

	yesPrice := *verdict.BuyYesPrice
	noPrice := *verdict.BuyNoPrice
	if yesPrice <= 0 || noPrice <= 0 {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("ledger: pair %s: non-positive leg price: %w", pair.ID, domain.ErrMissingPrice)
	}

	now := time.Now().UTC()
	half := amount / 2

	yesLeg := domain.TradeLeg{
		MarketID: pair.MarketA.ID,
		Outcome:  domain.OutcomeYes,
		Price:    yesPrice,
		Shares:   half / yesPrice,
		Cost:     half,
	}
	noLeg := domain.TradeLeg{
		MarketID: pair.MarketB.ID,
		Outcome:  domain.OutcomeNo,
		Price:    noPrice,
		Shares:   half / noPrice,
		Cost:     half,
	}

	l.portfolio.TradeCount++
	l.openLeg(pair, pair.MarketA.Title, yesLeg, now)
	l.openLeg(pair, pair.MarketB.Title, noLeg, now)
	l.portfolio.Cash -= amount

	rec := domain.TradeRecord{
		ID:         uuid.New().String(),
		PairID:     pair.ID,
		Amount:     amount,
		YesLeg:     yesLeg,
		NoLeg:      noLeg,
		ExecutedAt: now,
	}
	return rec, l.portfolio.Clone(), nil
}

// openLeg opens a new position or augments the existing position for the
// same pair/market/outcome, recomputing the average entry price.
func (l *Ledger) openLeg(pair domain.Pair, title string, leg domain.TradeLeg, now time.Time) {
	for i := range l.portfolio.Positions {
		pos := &l.portfolio.Positions[i]
		if pos.PairID == pair.ID && pos.MarketID == leg.MarketID && pos.Outcome == leg.Outcome {
			totalShares := pos.Shares + leg.Shares
			totalCost := pos.CostBasis + leg.Cost
			pos.Shares = totalShares
			pos.CostBasis = totalCost
			pos.AvgPrice = totalCost / totalShares
			return
		}
	}

	l.portfolio.Positions = append(l.portfolio.Positions, domain.Position{
		ID:          fmt.Sprintf("%s_%s_%s_%d", pair.ID, leg.MarketID, leg.Outcome, l.portfolio.TradeCount),
		PairID:      pair.ID,
		MarketID:    leg.MarketID,
		MarketTitle: title,
		Outcome:     leg.Outcome,
		Shares:      leg.Shares,
		AvgPrice:    leg.Price,
		CostBasis:   leg.Cost,
		OpenedAt:    now,
	})
}

// MarkToMarket values every position at the prices supplied by lookup.
// Positions without a quote keep nil value/PnL and contribute zero to the
// aggregate; the per-position nil is preserved so the UI can show "unknown"
// instead of a fake zero.
func (l *Ledger) MarkToMarket(lookup PriceLookup) domain.PortfolioView {
	l.mu.Lock()
	defer l.mu.Unlock()

	view := domain.PortfolioView{
		Cash:         l.portfolio.Cash,
		StartingCash: l.portfolio.StartingCash,
		Positions:    make([]domain.PositionView, 0, len(l.portfolio.Positions)),
		TradeCount:   l.portfolio.TradeCount,
	}

	for _, pos := range l.portfolio.Positions {
		pv := domain.PositionView{Position: pos}
		if price := lookup(pos.MarketID, pos.Outcome); price != nil {
			p := *price
			value := pos.Shares * p
			pnl := value - pos.CostBasis
			pv.CurrentPrice = &p
			pv.CurrentValue = &value
			pv.PnL = &pnl
			view.PositionValue += value
		}
		view.Positions = append(view.Positions, pv)
	}

	view.TotalValue = view.Cash + view.PositionValue
	view.TotalPnL = view.TotalValue - view.StartingCash
	return view
}

// Reset discards all positions and restores the original starting cash.
// It is idempotent and destructive; there is no undo.
func (l *Ledger) Reset() domain.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.portfolio = domain.Portfolio{
		Cash:         l.startingCash,
		StartingCash: l.startingCash,
	}
	return l.portfolio.Clone()
}
