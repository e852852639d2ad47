// Package service implements the application use cases on top of the domain
// stores, the price cache, and the signal bus.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pairscout/engine/internal/domain"
)

// MarketService handles market snapshot sync and reads, overlaying live
// cached quotes on the stored snapshots.
type MarketService struct {
	markets domain.MarketStore
	prices  domain.PriceCache
	logger  *slog.Logger
}

// NewMarketService creates a MarketService. prices may be nil when no live
// feed is running; reads then serve snapshot prices as-is.
func NewMarketService(markets domain.MarketStore, prices domain.PriceCache, logger *slog.Logger) *MarketService {
	return &MarketService{
		markets: markets,
		prices:  prices,
		logger:  logger.With(slog.String("component", "market_service")),
	}
}

// SyncMarkets upserts a batch of market snapshots into the persistent store.
func (s *MarketService) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	if err := s.markets.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: upsert batch: %w", err)
	}

	s.logger.InfoContext(ctx, "synced markets", slog.Int("count", len(markets)))
	return nil
}

// GetMarket retrieves a market by ID with live quotes overlaid when the
// cache has them.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by id %q: %w", id, err)
	}

	s.overlayLivePrices(ctx, []domain.Market{m})
	return m, nil
}

// ListOpen returns open markets ordered by liquidity, live quotes overlaid.
func (s *MarketService) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.ListOpen(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list open: %w", err)
	}

	s.overlayLivePrices(ctx, markets)
	return markets, nil
}

// Count returns the number of stored markets.
func (s *MarketService) Count(ctx context.Context) (int64, error) {
	return s.markets.Count(ctx)
}

// overlayLivePrices replaces snapshot quotes with cached live quotes, in
// place. Sides the cache has never seen keep their snapshot value; cache
// failures are logged and leave the snapshots untouched.
func (s *MarketService) overlayLivePrices(ctx context.Context, markets []domain.Market) {
	if s.prices == nil || len(markets) == 0 {
		return
	}

	ids := make([]string, len(markets))
	for i, m := range markets {
		ids[i] = m.ID
	}

	quotes, err := s.prices.GetPrices(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "live price lookup failed", slog.String("error", err.Error()))
		return
	}

	for i := range markets {
		q, ok := quotes[markets[i].ID]
		if !ok {
			continue
		}
		if q.Yes != nil {
			markets[i].YesPrice = q.Yes
		}
		if q.No != nil {
			markets[i].NoPrice = q.No
		}
	}
}
