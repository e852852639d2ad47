package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
)

func TestFilterByKeywordWholeWord(t *testing.T) {
	markets := []domain.Market{
		{ID: "1", Title: "Will Iran sign the deal?"},
		{ID: "2", Title: "IRAN sanctions lifted by 2027?"},
		{ID: "3", Title: "Will Miranda win the election?"},
		{ID: "4", Title: "Iranian oil exports above 2M bpd?"},
		{ID: "5", Title: "Ceasefire with iran this year?"},
	}

	got, err := FilterByKeyword(markets, "iran")
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	// Case-insensitive whole-word match: "Miranda" and "Iranian" do not count.
	assert.Equal(t, []string{"1", "2", "5"}, ids)
}

func TestFilterByKeywordNoMatches(t *testing.T) {
	markets := []domain.Market{{ID: "1", Title: "Fed cuts rates in September?"}}

	got, err := FilterByKeyword(markets, "iran")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterOpen(t *testing.T) {
	markets := []domain.Market{
		{ID: "open", Active: true, Closed: false},
		{ID: "inactive", Active: false, Closed: false},
		{ID: "closed", Active: true, Closed: true},
	}

	got := FilterOpen(markets)
	require.Len(t, got, 1)
	assert.Equal(t, "open", got[0].ID)
}

func TestTopByLiquidity(t *testing.T) {
	markets := []domain.Market{
		{ID: "low", Liquidity: 100},
		{ID: "high", Liquidity: 9000},
		{ID: "mid", Liquidity: 500},
	}

	got := TopByLiquidity(markets, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)

	// Input slice must not be reordered.
	assert.Equal(t, "low", markets[0].ID)
}

func TestTopByLiquidityStable(t *testing.T) {
	markets := []domain.Market{
		{ID: "first", Liquidity: 500},
		{ID: "second", Liquidity: 500},
		{ID: "third", Liquidity: 500},
	}

	got := TopByLiquidity(markets, 3)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestTopByLiquidityNoCap(t *testing.T) {
	markets := []domain.Market{
		{ID: "low", Liquidity: 100},
		{ID: "high", Liquidity: 9000},
	}

	got := TopByLiquidity(markets, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "low", got[0].ID)
	assert.Equal(t, "high", got[1].ID)
}

func TestGroup(t *testing.T) {
	markets := []domain.Market{
		{ID: "1", Title: "Will Iran sign the deal?", Active: true, Liquidity: 100},
		{ID: "2", Title: "Iran sanctions lifted?", Active: true, Liquidity: 5000},
		{ID: "3", Title: "Iran ceasefire by June?", Active: true, Closed: true, Liquidity: 9000},
		{ID: "4", Title: "Fed cuts rates?", Active: true, Liquidity: 8000},
		{ID: "5", Title: "Iran strikes resume?", Active: true, Liquidity: 700},
	}

	group, err := Group(markets, "iran", 2)
	require.NoError(t, err)

	assert.Equal(t, "iran", group.Keyword)
	require.Len(t, group.Markets, 2)
	// Closed market 3 is excluded even though it is the most liquid match.
	assert.Equal(t, "2", group.Markets[0].ID)
	assert.Equal(t, "5", group.Markets[1].ID)
}
