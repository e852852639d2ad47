package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func arbPair() domain.Pair {
	return domain.Pair{
		ID:      "iran_0001",
		Keyword: "iran",
		MarketA: domain.Market{ID: "ma", Title: "Will Iran sign the deal?", YesPrice: fptr(0.40), NoPrice: fptr(0.60)},
		MarketB: domain.Market{ID: "mb", Title: "Iran sanctions lifted?", YesPrice: fptr(0.55), NoPrice: fptr(0.45)},
	}
}

func TestApplyTrade(t *testing.T) {
	l := New(10000)

	rec, after, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	assert.Equal(t, "iran_0001", rec.PairID)
	assert.Equal(t, 500.0, rec.Amount)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.ExecutedAt.IsZero())

	assert.Equal(t, "ma", rec.YesLeg.MarketID)
	assert.Equal(t, domain.OutcomeYes, rec.YesLeg.Outcome)
	assert.InDelta(t, 0.40, rec.YesLeg.Price, 1e-9)
	assert.InDelta(t, 625.0, rec.YesLeg.Shares, 1e-9) // 250 / 0.40
	assert.InDelta(t, 250.0, rec.YesLeg.Cost, 1e-9)

	assert.Equal(t, "mb", rec.NoLeg.MarketID)
	assert.Equal(t, domain.OutcomeNo, rec.NoLeg.Outcome)
	assert.InDelta(t, 0.45, rec.NoLeg.Price, 1e-9)
	assert.InDelta(t, 250.0/0.45, rec.NoLeg.Shares, 1e-9)
	assert.InDelta(t, 250.0, rec.NoLeg.Cost, 1e-9)

	assert.InDelta(t, 9500.0, after.Cash, 1e-9)
	assert.Equal(t, 1, after.TradeCount)
	require.Len(t, after.Positions, 2)

	totalBasis := after.Positions[0].CostBasis + after.Positions[1].CostBasis
	assert.InDelta(t, 500.0, totalBasis, 1e-9)
	assert.Equal(t, "Will Iran sign the deal?", after.Positions[0].MarketTitle)
}

func TestApplyTradeInsufficientFunds(t *testing.T) {
	l := New(100)

	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Failed trade must leave the portfolio untouched.
	snap := l.Snapshot()
	assert.InDelta(t, 100.0, snap.Cash, 1e-9)
	assert.Empty(t, snap.Positions)
	assert.Zero(t, snap.TradeCount)
}

func TestApplyTradeInvalidAmount(t *testing.T) {
	l := New(10000)

	_, _, err := l.ApplyTrade(arbPair(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, _, err = l.ApplyTrade(arbPair(), -50)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApplyTradeNoArbitrage(t *testing.T) {
	l := New(10000)
	pair := arbPair()
	pair.MarketA.YesPrice = fptr(0.60)
	pair.MarketB.NoPrice = fptr(0.55)

	_, _, err := l.ApplyTrade(pair, 500)
	require.ErrorIs(t, err, domain.ErrNoArbitrage)
	assert.InDelta(t, 10000.0, l.Snapshot().Cash, 1e-9)
}

func TestApplyTradeMissingPrice(t *testing.T) {
	l := New(10000)
	pair := arbPair()
	pair.MarketB.NoPrice = nil

	_, _, err := l.ApplyTrade(pair, 500)
	assert.ErrorIs(t, err, domain.ErrMissingPrice)
}

func TestApplyTradeInvalidPair(t *testing.T) {
	l := New(10000)
	pair := arbPair()
	pair.MarketB = pair.MarketA

	_, _, err := l.ApplyTrade(pair, 500)
	assert.ErrorIs(t, err, domain.ErrInvalidPair)
	assert.InDelta(t, 10000.0, l.Snapshot().Cash, 1e-9)
}

func TestApplyTradeSamePairTwiceMergesPositions(t *testing.T) {
	l := New(10000)

	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)
	_, after, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	assert.Equal(t, 2, after.TradeCount)
	assert.InDelta(t, 9000.0, after.Cash, 1e-9)
	// Same pair, market, and outcome augments the existing positions.
	require.Len(t, after.Positions, 2)
	assert.InDelta(t, 1250.0, after.Positions[0].Shares, 1e-9)
	assert.InDelta(t, 500.0, after.Positions[0].CostBasis, 1e-9)
	assert.InDelta(t, 0.40, after.Positions[0].AvgPrice, 1e-9)
}

func TestMarkToMarketAtEntryPrices(t *testing.T) {
	l := New(10000)
	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	prices := map[string]map[domain.Outcome]float64{
		"ma": {domain.OutcomeYes: 0.40},
		"mb": {domain.OutcomeNo: 0.45},
	}
	view := l.MarkToMarket(func(marketID string, outcome domain.Outcome) *float64 {
		if p, ok := prices[marketID][outcome]; ok {
			return &p
		}
		return nil
	})

	// Valued at the execution prices the trade is flat.
	assert.InDelta(t, 9500.0, view.Cash, 1e-9)
	assert.InDelta(t, 500.0, view.PositionValue, 1e-9)
	assert.InDelta(t, 10000.0, view.TotalValue, 1e-9)
	assert.InDelta(t, 0.0, view.TotalPnL, 1e-9)
	for _, pv := range view.Positions {
		require.NotNil(t, pv.PnL)
		assert.InDelta(t, 0.0, *pv.PnL, 1e-9)
	}
}

func TestMarkToMarketMissingQuote(t *testing.T) {
	l := New(10000)
	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	yes := 0.50
	view := l.MarkToMarket(func(marketID string, outcome domain.Outcome) *float64 {
		if marketID == "ma" && outcome == domain.OutcomeYes {
			return &yes
		}
		return nil
	})

	require.Len(t, view.Positions, 2)
	require.NotNil(t, view.Positions[0].CurrentValue)
	assert.InDelta(t, 312.5, *view.Positions[0].CurrentValue, 1e-9) // 625 * 0.50

	// Unquoted position stays unknown and adds nothing to the total.
	assert.Nil(t, view.Positions[1].CurrentPrice)
	assert.Nil(t, view.Positions[1].CurrentValue)
	assert.Nil(t, view.Positions[1].PnL)
	assert.InDelta(t, 312.5, view.PositionValue, 1e-9)
}

func TestResetIdempotent(t *testing.T) {
	l := New(10000)
	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	first := l.Reset()
	assert.InDelta(t, 10000.0, first.Cash, 1e-9)
	assert.Empty(t, first.Positions)
	assert.Zero(t, first.TradeCount)

	second := l.Reset()
	assert.Equal(t, first, second)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	l := New(10000)
	_, _, err := l.ApplyTrade(arbPair(), 500)
	require.NoError(t, err)

	snap := l.Snapshot()
	snap.Positions[0].Shares = -1
	snap.Cash = 0

	fresh := l.Snapshot()
	assert.InDelta(t, 625.0, fresh.Positions[0].Shares, 1e-9)
	assert.InDelta(t, 9500.0, fresh.Cash, 1e-9)
}

func TestRestore(t *testing.T) {
	l := New(10000)
	l.Restore(domain.Portfolio{
		Cash:         4200,
		StartingCash: 10000,
		TradeCount:   7,
		Positions:    []domain.Position{{ID: "p1", PairID: "iran_0001", MarketID: "ma", Outcome: domain.OutcomeYes, Shares: 10, AvgPrice: 0.4, CostBasis: 4}},
	})

	snap := l.Snapshot()
	assert.InDelta(t, 4200.0, snap.Cash, 1e-9)
	assert.Equal(t, 7, snap.TradeCount)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, "p1", snap.Positions[0].ID)
}

func TestNewDefaultsStartingCash(t *testing.T) {
	l := New(0)
	assert.InDelta(t, DefaultStartingCash, l.Snapshot().Cash, 1e-9)
}
