package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pairscout/engine/internal/advisor"
	"github.com/pairscout/engine/internal/arbitrage"
	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/notify"
	"github.com/pairscout/engine/internal/pairing"
)

// PairBuilder rebuilds the candidate-pair listings from the stored market
// snapshots, one keyword at a time. When an advisor is configured its
// suggested implication pairs are used; otherwise, or when it returns
// nothing, every combination in the group is enumerated.
type PairBuilder struct {
	markets    domain.MarketStore
	pairs      domain.PairStore
	adv        advisor.Advisor // nil disables advisory pairing
	notifier   *notify.Notifier
	keywords   []string
	maxMarkets int
	logger     *slog.Logger
}

// NewPairBuilder creates a PairBuilder for the given keyword list.
// maxMarkets caps the group size per keyword; notifier may be nil.
func NewPairBuilder(
	markets domain.MarketStore,
	pairs domain.PairStore,
	adv advisor.Advisor,
	notifier *notify.Notifier,
	keywords []string,
	maxMarkets int,
	logger *slog.Logger,
) *PairBuilder {
	return &PairBuilder{
		markets:    markets,
		pairs:      pairs,
		adv:        adv,
		notifier:   notifier,
		keywords:   keywords,
		maxMarkets: maxMarkets,
		logger:     logger.With(slog.String("component", "pair_builder")),
	}
}

// Run rebuilds pairs for every configured keyword. A failure on one keyword
// is logged and does not stop the others.
func (b *PairBuilder) Run(ctx context.Context) error {
	all, err := b.markets.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("pair builder: load markets: %w", err)
	}

	for _, kw := range b.keywords {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.rebuildKeyword(ctx, kw, all); err != nil {
			b.logger.Error("pair rebuild failed",
				slog.String("keyword", kw),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// RebuildKeyword rebuilds the pair set for a single keyword, loading markets
// fresh from the store. Used by the manual pipeline trigger.
func (b *PairBuilder) RebuildKeyword(ctx context.Context, keyword string) error {
	all, err := b.markets.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("pair builder: load markets: %w", err)
	}
	return b.rebuildKeyword(ctx, keyword, all)
}

func (b *PairBuilder) rebuildKeyword(ctx context.Context, keyword string, all []domain.Market) error {
	group, err := pairing.Group(all, keyword, b.maxMarkets)
	if err != nil {
		return err
	}

	src := b.candidateSource(ctx, group)
	pairs := pairing.Generate(group.Markets, keyword, src, time.Now().UTC())

	if err := b.pairs.ReplaceKeyword(ctx, keyword, pairs); err != nil {
		return err
	}

	found := 0
	for _, p := range pairs {
		v := arbitrage.Evaluate(p)
		if !v.HasArbitrage {
			continue
		}
		found++
		if b.notifier != nil {
			if err := b.notifier.AlertOpportunity(ctx, p, v); err != nil {
				b.logger.Warn("opportunity alert failed",
					slog.String("pair_id", p.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	b.logger.Info("pairs rebuilt",
		slog.String("keyword", keyword),
		slog.Int("markets", len(group.Markets)),
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", found),
	)
	return nil
}

// candidateSource asks the advisor for implication pairs, falling back to
// exhaustive combinations when no advisor is configured, the advisor fails,
// or it suggests nothing.
func (b *PairBuilder) candidateSource(ctx context.Context, group domain.KeywordGroup) pairing.Source {
	if b.adv == nil {
		return pairing.AllCombinations{}
	}

	suggestions, err := b.adv.SuggestPairs(ctx, group.Keyword, group.Markets)
	if err != nil {
		b.logger.Warn("advisor failed, falling back to combinations",
			slog.String("keyword", group.Keyword),
			slog.String("error", err.Error()),
		)
		return pairing.AllCombinations{}
	}
	if len(suggestions) == 0 {
		return pairing.AllCombinations{}
	}

	candidates := make([]pairing.Candidate, 0, len(suggestions))
	for _, s := range suggestions {
		candidates = append(candidates, pairing.Candidate{
			A:         s.TriggerIndex,
			B:         s.ImpliedIndex,
			Rationale: s.Reasoning,
		})
	}
	return pairing.IndexPairs{Pairs: candidates}
}
