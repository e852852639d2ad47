package advisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairscout/engine/internal/domain"
)

func TestParseSuggestions(t *testing.T) {
	raw := `[
		{"trigger_market_id": "0", "implied_market_id": "3", "reasoning": "numerical inclusion"},
		{"trigger_market_id": "2", "implied_market_id": "1", "reasoning": "temporal inclusion"}
	]`

	got, err := parseSuggestions([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{TriggerIndex: 0, ImpliedIndex: 3, Reasoning: "numerical inclusion"}, got[0])
	assert.Equal(t, Suggestion{TriggerIndex: 2, ImpliedIndex: 1, Reasoning: "temporal inclusion"}, got[1])
}

func TestParseSuggestionsCodeFence(t *testing.T) {
	raw := "```json\n[{\"trigger_market_id\": \"1\", \"implied_market_id\": \"0\", \"reasoning\": \"x\"}]\n```"

	got, err := parseSuggestions([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].TriggerIndex)
	assert.Equal(t, 0, got[0].ImpliedIndex)
}

func TestParseSuggestionsEmptyList(t *testing.T) {
	got, err := parseSuggestions([]byte("[]"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseSuggestionsBadID(t *testing.T) {
	raw := `[{"trigger_market_id": "market-abc", "implied_market_id": "1", "reasoning": "x"}]`

	_, err := parseSuggestions([]byte(raw))
	assert.Error(t, err)
}

func TestParseSuggestionsNotJSON(t *testing.T) {
	_, err := parseSuggestions([]byte("I could not find any pairs."))
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	markets := []domain.Market{
		{Title: "BTC above $100k by March?", Description: "Resolves YES if BTC trades above 100000."},
		{Title: "BTC above $90k by March?", Description: "Resolves YES if BTC trades above 90000."},
	}

	prompt := buildPrompt(markets, 0)

	assert.Contains(t, prompt, "ID 0: BTC above $100k by March? (Description: Resolves YES if BTC trades above 100000.)")
	assert.Contains(t, prompt, "ID 1: BTC above $90k by March?")
	assert.Contains(t, prompt, "trigger_market_id")
	assert.Contains(t, prompt, "MARKET LIST")
}

func TestBuildPromptRespectsLimit(t *testing.T) {
	markets := []domain.Market{
		{Title: "first"},
		{Title: "second"},
		{Title: "third"},
	}

	prompt := buildPrompt(markets, 2)

	assert.Contains(t, prompt, "ID 0: first")
	assert.Contains(t, prompt, "ID 1: second")
	assert.NotContains(t, prompt, "ID 2: third")
}

func TestMockAdvisor(t *testing.T) {
	dir := t.TempDir()
	fixture := `[{"trigger_market_id": "4", "implied_market_id": "7", "reasoning": "categorical inclusion"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "iran_llm_response.json"), []byte(fixture), 0o644))

	mock := NewMock(dir)

	got, err := mock.SuggestPairs(context.Background(), "Iran", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].TriggerIndex)
	assert.Equal(t, 7, got[0].ImpliedIndex)
}

func TestMockAdvisorMissingFixture(t *testing.T) {
	mock := NewMock(t.TempDir())

	got, err := mock.SuggestPairs(context.Background(), "unknown", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
