package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
)

func namedMarkets(ids ...string) []domain.Market {
	out := make([]domain.Market, len(ids))
	for i, id := range ids {
		out[i] = domain.Market{ID: id, Title: id, Active: true}
	}
	return out
}

func TestAllCombinations(t *testing.T) {
	got := AllCombinations{}.Candidates(4)

	want := []Candidate{
		{A: 0, B: 1}, {A: 0, B: 2}, {A: 0, B: 3},
		{A: 1, B: 2}, {A: 1, B: 3},
		{A: 2, B: 3},
	}
	assert.Equal(t, want, got)
}

func TestAllCombinationsTooFew(t *testing.T) {
	assert.Nil(t, AllCombinations{}.Candidates(0))
	assert.Nil(t, AllCombinations{}.Candidates(1))
}

func TestIndexPairsDropsInvalid(t *testing.T) {
	src := IndexPairs{Pairs: []Candidate{
		{A: 0, B: 2, Rationale: "keep"},
		{A: 1, B: 1},  // self pair
		{A: -1, B: 2}, // negative
		{A: 0, B: 5},  // out of range
		{A: 2, B: 0, Rationale: "reverse direction is valid"},
	}}

	got := src.Candidates(3)
	require.Len(t, got, 2)
	assert.Equal(t, Candidate{A: 0, B: 2, Rationale: "keep"}, got[0])
	assert.Equal(t, Candidate{A: 2, B: 0, Rationale: "reverse direction is valid"}, got[1])
}

func TestGenerateAssignsSequentialIDs(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	markets := namedMarkets("m1", "m2", "m3")

	pairs := Generate(markets, "iran", AllCombinations{}, now)

	require.Len(t, pairs, 3)
	assert.Equal(t, "iran_0001", pairs[0].ID)
	assert.Equal(t, "iran_0002", pairs[1].ID)
	assert.Equal(t, "iran_0003", pairs[2].ID)
	for _, p := range pairs {
		assert.Equal(t, "iran", p.Keyword)
		assert.Equal(t, now, p.CreatedAt)
	}
	assert.Equal(t, "m1", pairs[0].MarketA.ID)
	assert.Equal(t, "m2", pairs[0].MarketB.ID)
	assert.Equal(t, "m2", pairs[2].MarketA.ID)
	assert.Equal(t, "m3", pairs[2].MarketB.ID)
}

func TestGenerateDeterministic(t *testing.T) {
	now := time.Now().UTC()
	markets := namedMarkets("m1", "m2", "m3", "m4")

	first := Generate(markets, "fed", AllCombinations{}, now)
	second := Generate(markets, "fed", AllCombinations{}, now)

	assert.Equal(t, first, second)
}

func TestGenerateTooFewMarkets(t *testing.T) {
	now := time.Now().UTC()

	assert.Nil(t, Generate(nil, "iran", AllCombinations{}, now))
	assert.Nil(t, Generate(namedMarkets("only"), "iran", AllCombinations{}, now))
}

func TestGenerateWithAdvisorCandidates(t *testing.T) {
	now := time.Now().UTC()
	markets := namedMarkets("m1", "m2", "m3")
	src := IndexPairs{Pairs: []Candidate{
		{A: 2, B: 0, Rationale: "m3 resolving yes implies m1 resolves yes"},
	}}

	pairs := Generate(markets, "oil", src, now)

	require.Len(t, pairs, 1)
	assert.Equal(t, "oil_0001", pairs[0].ID)
	assert.Equal(t, "m3", pairs[0].MarketA.ID)
	assert.Equal(t, "m1", pairs[0].MarketB.ID)
	assert.Equal(t, "m3 resolving yes implies m1 resolves yes", pairs[0].Rationale)
}
