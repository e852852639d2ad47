// Package pairing groups markets by keyword and enumerates candidate pairs
// for the arbitrage evaluator.
package pairing

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pairscout/engine/internal/domain"
)

// FilterByKeyword returns the markets whose title contains keyword as a whole
// word, case-insensitively ("Iran" matches, "Miran" does not). Input order is
// preserved.
func FilterByKeyword(markets []domain.Market, keyword string) ([]domain.Market, error) {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("pairing: compile keyword %q: %w", keyword, err)
	}

	var out []domain.Market
	for _, m := range markets {
		if re.MatchString(m.Title) {
			out = append(out, m)
		}
	}
	return out, nil
}

// FilterOpen returns only markets that are open for trading, preserving order.
func FilterOpen(markets []domain.Market) []domain.Market {
	var out []domain.Market
	for _, m := range markets {
		if m.IsOpen() {
			out = append(out, m)
		}
	}
	return out
}

// TopByLiquidity returns at most n markets ranked by liquidity descending.
// The sort is stable so equal-liquidity markets keep their input order and
// pair ID assignment stays reproducible.
func TopByLiquidity(markets []domain.Market, n int) []domain.Market {
	ranked := make([]domain.Market, len(markets))
	copy(ranked, markets)
	if n <= 0 {
		// No cap requested; keep input order.
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Liquidity > ranked[j].Liquidity
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Group applies the full keyword-group filter: whole-word title match,
// open markets only, capped to the maxMarkets most liquid entries.
func Group(markets []domain.Market, keyword string, maxMarkets int) (domain.KeywordGroup, error) {
	matched, err := FilterByKeyword(markets, keyword)
	if err != nil {
		return domain.KeywordGroup{}, err
	}
	selected := TopByLiquidity(FilterOpen(matched), maxMarkets)
	return domain.KeywordGroup{Keyword: keyword, Markets: selected}, nil
}
