package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
)

func TestBuildTokenIndex(t *testing.T) {
	markets := []domain.Market{
		{ID: "m1", YesTokenID: "tok-1y", NoTokenID: "tok-1n"},
		{ID: "m2", YesTokenID: "tok-2y"}, // NO side has no token
		{ID: "m3"},                       // REST-only market
	}

	idx := BuildTokenIndex(markets)

	require.Len(t, idx, 3)

	marketID, outcome, ok := idx.Resolve("tok-1y")
	require.True(t, ok)
	assert.Equal(t, "m1", marketID)
	assert.Equal(t, domain.OutcomeYes, outcome)

	marketID, outcome, ok = idx.Resolve("tok-1n")
	require.True(t, ok)
	assert.Equal(t, "m1", marketID)
	assert.Equal(t, domain.OutcomeNo, outcome)

	_, _, ok = idx.Resolve("tok-unknown")
	assert.False(t, ok)
}

func TestTokenIndexAssetIDs(t *testing.T) {
	idx := BuildTokenIndex([]domain.Market{
		{ID: "m1", YesTokenID: "a", NoTokenID: "b"},
	})

	ids := idx.AssetIDs()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
