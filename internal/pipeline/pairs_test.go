package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/advisor"
	"github.com/pairscout/engine/internal/domain"
)

type fakeMarketStore struct {
	markets []domain.Market
}

func (s *fakeMarketStore) Upsert(context.Context, domain.Market) error        { return nil }
func (s *fakeMarketStore) UpsertBatch(context.Context, []domain.Market) error { return nil }
func (s *fakeMarketStore) GetByID(context.Context, string) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}
func (s *fakeMarketStore) ListOpen(context.Context, domain.ListOpts) ([]domain.Market, error) {
	return s.markets, nil
}
func (s *fakeMarketStore) ListAll(context.Context) ([]domain.Market, error) {
	return s.markets, nil
}
func (s *fakeMarketStore) Count(context.Context) (int64, error) {
	return int64(len(s.markets)), nil
}

type fakePairStore struct {
	replaced map[string][]domain.Pair
}

func (s *fakePairStore) ReplaceKeyword(_ context.Context, keyword string, pairs []domain.Pair) error {
	if s.replaced == nil {
		s.replaced = map[string][]domain.Pair{}
	}
	s.replaced[keyword] = pairs
	return nil
}
func (s *fakePairStore) GetByID(context.Context, string) (domain.Pair, error) {
	return domain.Pair{}, domain.ErrNotFound
}
func (s *fakePairStore) ListByKeyword(context.Context, string, domain.ListOpts) ([]domain.Pair, error) {
	return nil, nil
}
func (s *fakePairStore) List(context.Context, domain.ListOpts) ([]domain.Pair, error) {
	return nil, nil
}
func (s *fakePairStore) CountByKeyword(context.Context) ([]domain.KeywordCount, error) {
	return nil, nil
}
func (s *fakePairStore) Count(context.Context, string) (int64, error) { return 0, nil }

type fakeAdvisor struct {
	suggestions []advisor.Suggestion
	err         error
	calls       int
}

func (a *fakeAdvisor) SuggestPairs(context.Context, string, []domain.Market) ([]advisor.Suggestion, error) {
	a.calls++
	return a.suggestions, a.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fptr(v float64) *float64 { return &v }

func scanMarkets() []domain.Market {
	return []domain.Market{
		{ID: "m1", Title: "Will Iran sign the deal by June?", Active: true, Liquidity: 900, YesPrice: fptr(0.40), NoPrice: fptr(0.60), FetchedAt: time.Now()},
		{ID: "m2", Title: "Will Iran sign the deal this year?", Active: true, Liquidity: 800, YesPrice: fptr(0.55), NoPrice: fptr(0.45), FetchedAt: time.Now()},
		{ID: "m3", Title: "Fed cuts rates in September?", Active: true, Liquidity: 700, FetchedAt: time.Now()},
	}
}

func TestPairBuilderCombinations(t *testing.T) {
	markets := &fakeMarketStore{markets: scanMarkets()}
	pairs := &fakePairStore{}

	b := NewPairBuilder(markets, pairs, nil, nil, []string{"iran"}, 25, testLogger())
	require.NoError(t, b.Run(context.Background()))

	got := pairs.replaced["iran"]
	require.Len(t, got, 1) // two iran markets, one combination
	assert.Equal(t, "iran_0001", got[0].ID)
	assert.Equal(t, "m1", got[0].MarketA.ID)
	assert.Equal(t, "m2", got[0].MarketB.ID)
}

func TestPairBuilderUsesAdvisorSuggestions(t *testing.T) {
	markets := &fakeMarketStore{markets: scanMarkets()}
	pairs := &fakePairStore{}
	adv := &fakeAdvisor{suggestions: []advisor.Suggestion{
		{TriggerIndex: 1, ImpliedIndex: 0, Reasoning: "temporal inclusion"},
	}}

	b := NewPairBuilder(markets, pairs, adv, nil, []string{"iran"}, 25, testLogger())
	require.NoError(t, b.Run(context.Background()))

	got := pairs.replaced["iran"]
	require.Len(t, got, 1)
	assert.Equal(t, 1, adv.calls)
	assert.Equal(t, "m2", got[0].MarketA.ID)
	assert.Equal(t, "m1", got[0].MarketB.ID)
	assert.Equal(t, "temporal inclusion", got[0].Rationale)
}

func TestPairBuilderAdvisorFailureFallsBack(t *testing.T) {
	markets := &fakeMarketStore{markets: scanMarkets()}
	pairs := &fakePairStore{}
	adv := &fakeAdvisor{err: errors.New("rate limited")}

	b := NewPairBuilder(markets, pairs, adv, nil, []string{"iran"}, 25, testLogger())
	require.NoError(t, b.Run(context.Background()))

	// Falls back to exhaustive combinations.
	require.Len(t, pairs.replaced["iran"], 1)
}

func TestPairBuilderEmptyKeywordGroup(t *testing.T) {
	markets := &fakeMarketStore{markets: scanMarkets()}
	pairs := &fakePairStore{}

	b := NewPairBuilder(markets, pairs, nil, nil, []string{"bitcoin"}, 25, testLogger())
	require.NoError(t, b.Run(context.Background()))

	// The keyword's listing is replaced with the empty set, not skipped.
	got, ok := pairs.replaced["bitcoin"]
	require.True(t, ok)
	assert.Empty(t, got)
}
