package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/ledger"
)

func fptr(v float64) *float64 { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memPairStore struct {
	pairs map[string]domain.Pair
}

func (s *memPairStore) ReplaceKeyword(context.Context, string, []domain.Pair) error { return nil }
func (s *memPairStore) GetByID(_ context.Context, id string) (domain.Pair, error) {
	p, ok := s.pairs[id]
	if !ok {
		return domain.Pair{}, domain.ErrNotFound
	}
	return p, nil
}
func (s *memPairStore) ListByKeyword(_ context.Context, keyword string, _ domain.ListOpts) ([]domain.Pair, error) {
	var out []domain.Pair
	for _, p := range s.pairs {
		if p.Keyword == keyword {
			out = append(out, p)
		}
	}
	return out, nil
}
func (s *memPairStore) List(context.Context, domain.ListOpts) ([]domain.Pair, error) {
	var out []domain.Pair
	for _, p := range s.pairs {
		out = append(out, p)
	}
	return out, nil
}
func (s *memPairStore) CountByKeyword(context.Context) ([]domain.KeywordCount, error) {
	counts := map[string]int{}
	for _, p := range s.pairs {
		counts[p.Keyword]++
	}
	var out []domain.KeywordCount
	for kw, n := range counts {
		out = append(out, domain.KeywordCount{Keyword: kw, PairCount: n})
	}
	return out, nil
}
func (s *memPairStore) Count(_ context.Context, keyword string) (int64, error) {
	if keyword == "" {
		return int64(len(s.pairs)), nil
	}
	var n int64
	for _, p := range s.pairs {
		if p.Keyword == keyword {
			n++
		}
	}
	return n, nil
}

type memPriceCache struct {
	quotes map[string]domain.QuotePair
}

func (c *memPriceCache) SetPrice(_ context.Context, marketID string, outcome domain.Outcome, price float64, _ time.Time) error {
	if c.quotes == nil {
		c.quotes = map[string]domain.QuotePair{}
	}
	q := c.quotes[marketID]
	if outcome == domain.OutcomeYes {
		q.Yes = &price
	} else {
		q.No = &price
	}
	c.quotes[marketID] = q
	return nil
}
func (c *memPriceCache) GetPrice(_ context.Context, marketID string, outcome domain.Outcome) (float64, time.Time, error) {
	q, ok := c.quotes[marketID]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	side := q.Yes
	if outcome == domain.OutcomeNo {
		side = q.No
	}
	if side == nil {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return *side, time.Now(), nil
}
func (c *memPriceCache) GetPrices(_ context.Context, marketIDs []string) (map[string]domain.QuotePair, error) {
	out := map[string]domain.QuotePair{}
	for _, id := range marketIDs {
		if q, ok := c.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

type memPortfolioStore struct {
	saved  *domain.Portfolio
	trades []domain.TradeRecord
}

func (s *memPortfolioStore) Save(_ context.Context, p domain.Portfolio) error {
	clone := p.Clone()
	s.saved = &clone
	return nil
}
func (s *memPortfolioStore) Load(context.Context) (domain.Portfolio, error) {
	if s.saved == nil {
		return domain.Portfolio{}, domain.ErrNotFound
	}
	return s.saved.Clone(), nil
}
func (s *memPortfolioStore) LogTrade(_ context.Context, rec domain.TradeRecord) error {
	s.trades = append(s.trades, rec)
	return nil
}
func (s *memPortfolioStore) ListTrades(context.Context, domain.ListOpts) ([]domain.TradeRecord, error) {
	return s.trades, nil
}

func storedPair() domain.Pair {
	return domain.Pair{
		ID:      "iran_0001",
		Keyword: "iran",
		MarketA: domain.Market{ID: "ma", Title: "a", YesPrice: fptr(0.60), NoPrice: fptr(0.40)},
		MarketB: domain.Market{ID: "mb", Title: "b", YesPrice: fptr(0.50), NoPrice: fptr(0.55)},
	}
}

func TestPairServiceRefreshesWithLiveQuotes(t *testing.T) {
	pairs := &memPairStore{pairs: map[string]domain.Pair{"iran_0001": storedPair()}}
	cache := &memPriceCache{}
	require.NoError(t, cache.SetPrice(context.Background(), "ma", domain.OutcomeYes, 0.40, time.Now()))
	require.NoError(t, cache.SetPrice(context.Background(), "mb", domain.OutcomeNo, 0.45, time.Now()))

	svc := NewPairService(pairs, cache, testLogger())

	view, err := svc.GetPair(context.Background(), "iran_0001")
	require.NoError(t, err)

	// Snapshot had 0.60 + 0.55 (no arb); live quotes flip the verdict.
	require.True(t, view.Arbitrage.HasArbitrage)
	assert.InDelta(t, 0.85, *view.Arbitrage.TotalCost, 1e-9)
	assert.InDelta(t, 0.40, *view.MarketA.YesPrice, 1e-9)
	assert.InDelta(t, 0.45, *view.MarketB.NoPrice, 1e-9)
}

func TestPairServiceSnapshotFallback(t *testing.T) {
	pairs := &memPairStore{pairs: map[string]domain.Pair{"iran_0001": storedPair()}}
	svc := NewPairService(pairs, &memPriceCache{}, testLogger())

	view, err := svc.GetPair(context.Background(), "iran_0001")
	require.NoError(t, err)

	// No cached quotes: the snapshot prices stand.
	assert.False(t, view.Arbitrage.HasArbitrage)
	assert.InDelta(t, 1.15, *view.Arbitrage.TotalCost, 1e-9)
}

func TestPairServiceNotFound(t *testing.T) {
	svc := NewPairService(&memPairStore{}, nil, testLogger())

	_, err := svc.GetPair(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPortfolioServiceExecuteTrade(t *testing.T) {
	ctx := context.Background()
	pairs := &memPairStore{pairs: map[string]domain.Pair{"iran_0001": storedPair()}}
	cache := &memPriceCache{}
	require.NoError(t, cache.SetPrice(ctx, "ma", domain.OutcomeYes, 0.40, time.Now()))
	require.NoError(t, cache.SetPrice(ctx, "mb", domain.OutcomeNo, 0.45, time.Now()))

	store := &memPortfolioStore{}
	pairSvc := NewPairService(pairs, cache, testLogger())
	svc := NewPortfolioService(ledger.New(10000), store, pairSvc, cache, nil, nil, testLogger())
	require.NoError(t, svc.Init(ctx))

	rec, after, err := svc.ExecuteTrade(ctx, "iran_0001", 500)
	require.NoError(t, err)
	assert.Equal(t, "iran_0001", rec.PairID)
	assert.InDelta(t, 9500.0, after.Cash, 1e-9)

	// Write-through persisted both the portfolio and the trade log entry.
	require.NotNil(t, store.saved)
	assert.InDelta(t, 9500.0, store.saved.Cash, 1e-9)
	require.Len(t, store.trades, 1)
	assert.Equal(t, rec.ID, store.trades[0].ID)
}

func TestPortfolioServiceExecuteTradeNoArbitrage(t *testing.T) {
	ctx := context.Background()
	pairs := &memPairStore{pairs: map[string]domain.Pair{"iran_0001": storedPair()}}
	store := &memPortfolioStore{}
	pairSvc := NewPairService(pairs, &memPriceCache{}, testLogger())
	svc := NewPortfolioService(ledger.New(10000), store, pairSvc, nil, nil, nil, testLogger())
	require.NoError(t, svc.Init(ctx))

	// Snapshot prices cost 1.15; execution must refuse.
	_, _, err := svc.ExecuteTrade(ctx, "iran_0001", 500)
	require.ErrorIs(t, err, domain.ErrNoArbitrage)
	assert.Empty(t, store.trades)
}

func TestPortfolioServiceInitRestores(t *testing.T) {
	ctx := context.Background()
	store := &memPortfolioStore{}
	require.NoError(t, store.Save(ctx, domain.Portfolio{Cash: 7000, StartingCash: 10000, TradeCount: 3}))

	led := ledger.New(10000)
	svc := NewPortfolioService(led, store, nil, nil, nil, nil, testLogger())
	require.NoError(t, svc.Init(ctx))

	snap := led.Snapshot()
	assert.InDelta(t, 7000.0, snap.Cash, 1e-9)
	assert.Equal(t, 3, snap.TradeCount)
}

func TestPortfolioServiceReset(t *testing.T) {
	ctx := context.Background()
	store := &memPortfolioStore{}
	svc := NewPortfolioService(ledger.New(10000), store, nil, nil, nil, nil, testLogger())
	require.NoError(t, svc.Init(ctx))

	fresh, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, fresh.Cash, 1e-9)
	require.NotNil(t, store.saved)
	assert.Zero(t, store.saved.TradeCount)
}
