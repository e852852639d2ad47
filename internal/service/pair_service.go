package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pairscout/engine/internal/arbitrage"
	"github.com/pairscout/engine/internal/domain"
)

// PairView is a pair annotated with its arbitrage verdict at read time.
type PairView struct {
	domain.Pair
	Arbitrage domain.Verdict `json:"arbitrage"`
}

// PairService serves the candidate-pair listings. Every read refreshes the
// pair's frozen market snapshots with live cached quotes before evaluating,
// so the verdict reflects current prices, not scrape-time prices.
type PairService struct {
	pairs  domain.PairStore
	prices domain.PriceCache
	logger *slog.Logger
}

// NewPairService creates a PairService. prices may be nil; verdicts are then
// computed from the snapshot prices frozen at pair build time.
func NewPairService(pairs domain.PairStore, prices domain.PriceCache, logger *slog.Logger) *PairService {
	return &PairService{
		pairs:  pairs,
		prices: prices,
		logger: logger.With(slog.String("component", "pair_service")),
	}
}

// GetPair returns one pair, refreshed and evaluated.
func (s *PairService) GetPair(ctx context.Context, id string) (PairView, error) {
	p, err := s.pairs.GetByID(ctx, id)
	if err != nil {
		return PairView{}, fmt.Errorf("pair_service: get %q: %w", id, err)
	}

	s.refresh(ctx, []domain.Pair{p})
	return PairView{Pair: p, Arbitrage: arbitrage.Evaluate(p)}, nil
}

// RefreshedPair returns the pair with live prices applied but without the
// verdict wrapper. The trade path uses it so execution prices match what the
// listing showed.
func (s *PairService) RefreshedPair(ctx context.Context, id string) (domain.Pair, error) {
	p, err := s.pairs.GetByID(ctx, id)
	if err != nil {
		return domain.Pair{}, fmt.Errorf("pair_service: get %q: %w", id, err)
	}
	s.refresh(ctx, []domain.Pair{p})
	return p, nil
}

// ListPairs returns pairs for one keyword, or across all keywords when
// keyword is empty, each refreshed and evaluated. The returned count is the
// total matching rows ignoring pagination.
func (s *PairService) ListPairs(ctx context.Context, keyword string, opts domain.ListOpts) ([]PairView, int64, error) {
	var (
		pairs []domain.Pair
		err   error
	)
	if keyword == "" {
		pairs, err = s.pairs.List(ctx, opts)
	} else {
		pairs, err = s.pairs.ListByKeyword(ctx, keyword, opts)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("pair_service: list: %w", err)
	}

	total, err := s.pairs.Count(ctx, keyword)
	if err != nil {
		return nil, 0, fmt.Errorf("pair_service: count: %w", err)
	}

	s.refresh(ctx, pairs)

	views := make([]PairView, 0, len(pairs))
	for _, p := range pairs {
		views = append(views, PairView{Pair: p, Arbitrage: arbitrage.Evaluate(p)})
	}
	return views, total, nil
}

// Keywords returns every stored keyword with its pair count.
func (s *PairService) Keywords(ctx context.Context) ([]domain.KeywordCount, error) {
	counts, err := s.pairs.CountByKeyword(ctx)
	if err != nil {
		return nil, fmt.Errorf("pair_service: keywords: %w", err)
	}
	return counts, nil
}

// refresh overlays cached live quotes onto the pairs' market snapshots, in
// place. A side without a cached quote keeps its snapshot value; a snapshot
// side that was nil stays nil unless the cache knows better.
func (s *PairService) refresh(ctx context.Context, pairs []domain.Pair) {
	if s.prices == nil || len(pairs) == 0 {
		return
	}

	idSet := make(map[string]struct{}, len(pairs)*2)
	for _, p := range pairs {
		idSet[p.MarketA.ID] = struct{}{}
		idSet[p.MarketB.ID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	quotes, err := s.prices.GetPrices(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "live price lookup failed", slog.String("error", err.Error()))
		return
	}

	apply := func(m *domain.Market) {
		q, ok := quotes[m.ID]
		if !ok {
			return
		}
		if q.Yes != nil {
			m.YesPrice = q.Yes
		}
		if q.No != nil {
			m.NoPrice = q.No
		}
	}
	for i := range pairs {
		apply(&pairs[i].MarketA)
		apply(&pairs[i].MarketB)
	}
}
