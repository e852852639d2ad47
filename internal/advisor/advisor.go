// Package advisor narrows the pair search space. Instead of evaluating every
// combination in a keyword group, an advisor proposes only the pairs where one
// market resolving YES logically forces the other to resolve YES.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pairscout/engine/internal/domain"
)

// Suggestion is one proposed implication pair, expressed as indices into the
// market list handed to SuggestPairs. Trigger is market A, Implied is B.
type Suggestion struct {
	TriggerIndex int
	ImpliedIndex int
	Reasoning    string
}

// Advisor proposes implication pairs for one keyword group. Implementations
// must not reorder or mutate the market slice; suggestion indices refer to
// positions in it.
type Advisor interface {
	SuggestPairs(ctx context.Context, keyword string, markets []domain.Market) ([]Suggestion, error)
}

// rawSuggestion is the wire shape shared by the model reply and the mock
// fixture files. Index IDs arrive as strings.
type rawSuggestion struct {
	TriggerMarketID string `json:"trigger_market_id"`
	ImpliedMarketID string `json:"implied_market_id"`
	Reasoning       string `json:"reasoning"`
}

// parseSuggestions decodes a JSON array of raw suggestions, tolerating a
// markdown code fence around the payload. Entries with non-numeric IDs fail
// the whole parse; garbage indices would silently pair the wrong markets.
func parseSuggestions(raw []byte) ([]Suggestion, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var items []rawSuggestion
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("advisor: decode suggestions: %w", err)
	}

	out := make([]Suggestion, 0, len(items))
	for _, item := range items {
		trigger, err := strconv.Atoi(strings.TrimSpace(item.TriggerMarketID))
		if err != nil {
			return nil, fmt.Errorf("advisor: trigger id %q is not an index: %w", item.TriggerMarketID, err)
		}
		implied, err := strconv.Atoi(strings.TrimSpace(item.ImpliedMarketID))
		if err != nil {
			return nil, fmt.Errorf("advisor: implied id %q is not an index: %w", item.ImpliedMarketID, err)
		}
		out = append(out, Suggestion{
			TriggerIndex: trigger,
			ImpliedIndex: implied,
			Reasoning:    item.Reasoning,
		})
	}
	return out, nil
}
