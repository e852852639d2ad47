package pairing

import (
	"fmt"
	"time"

	"github.com/pairscout/engine/internal/domain"
)

// Candidate is one proposed pairing, expressed as indices into the market
// list handed to Generate. A is the trigger market, B the implied market.
type Candidate struct {
	A         int
	B         int
	Rationale string
}

// Source supplies candidate index pairs over a market list of length n.
// Implementations must be deterministic for a given input.
type Source interface {
	Candidates(n int) []Candidate
}

// AllCombinations emits every unordered combination of two distinct indices
// in ascending (i, j) order. Pairing is O(n²), which is why callers cap the
// group size before generating.
type AllCombinations struct{}

// Candidates implements Source.
func (AllCombinations) Candidates(n int) []Candidate {
	if n < 2 {
		return nil
	}
	out := make([]Candidate, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, Candidate{A: i, B: j})
		}
	}
	return out
}

// IndexPairs emits a fixed list of externally supplied candidates, e.g. the
// implication pairs flagged by the advisor. Entries that reference an index
// outside [0, n) or pair an index with itself are dropped.
type IndexPairs struct {
	Pairs []Candidate
}

// Candidates implements Source.
func (s IndexPairs) Candidates(n int) []Candidate {
	out := make([]Candidate, 0, len(s.Pairs))
	for _, c := range s.Pairs {
		if c.A < 0 || c.A >= n || c.B < 0 || c.B >= n || c.A == c.B {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Generate builds Pairs for one keyword group. The source decides which
// combinations matter; Generate only maps indices back to markets and
// assigns sequential pair IDs. Fewer than two markets yields no pairs.
func Generate(markets []domain.Market, keyword string, src Source, now time.Time) []domain.Pair {
	if len(markets) < 2 {
		return nil
	}

	candidates := src.Candidates(len(markets))
	pairs := make([]domain.Pair, 0, len(candidates))
	for i, c := range candidates {
		pairs = append(pairs, domain.Pair{
			ID:        fmt.Sprintf("%s_%04d", keyword, i+1),
			Keyword:   keyword,
			MarketA:   markets[c.A],
			MarketB:   markets[c.B],
			Rationale: c.Rationale,
			CreatedAt: now,
		})
	}
	return pairs
}
