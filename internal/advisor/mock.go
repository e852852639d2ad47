package advisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pairscout/engine/internal/domain"
)

// MockAdvisor replays pre-computed suggestions from JSON fixture files, one
// per keyword, named <keyword>_llm_response.json. It exists so the pipeline
// can run end to end without model credentials.
type MockAdvisor struct {
	dir string
}

var _ Advisor = (*MockAdvisor)(nil)

// NewMock creates an advisor reading fixtures from dir.
func NewMock(dir string) *MockAdvisor {
	return &MockAdvisor{dir: dir}
}

// SuggestPairs implements Advisor. A keyword without a fixture file yields no
// suggestions rather than an error, so unseen keywords fall back to exhaustive
// pairing.
func (a *MockAdvisor) SuggestPairs(_ context.Context, keyword string, _ []domain.Market) ([]Suggestion, error) {
	name := fmt.Sprintf("%s_llm_response.json", strings.ToLower(keyword))
	raw, err := os.ReadFile(filepath.Join(a.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("advisor: read fixture for %q: %w", keyword, err)
	}
	return parseSuggestions(raw)
}
