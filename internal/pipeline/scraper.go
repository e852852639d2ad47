// Package pipeline contains the background jobs: market scraping, pair
// rebuilding, raw snapshot archival, and their orchestration.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pairscout/engine/internal/domain"
)

// MarketFetcher retrieves one cursor page of markets from an external API.
type MarketFetcher interface {
	GetMarketsPage(ctx context.Context, cursor string) ([]domain.Market, string, error)
}

// MarketSyncer persists a batch of market snapshots.
type MarketSyncer interface {
	SyncMarkets(ctx context.Context, markets []domain.Market) error
}

// MarketScraper walks the market listing and syncs each page to the store.
type MarketScraper struct {
	marketSvc  MarketSyncer
	fetcher    MarketFetcher
	archiver   *SnapshotArchiver // nil disables raw archival
	maxMarkets int
	pageDelay  time.Duration
	logger     *slog.Logger
}

// NewMarketScraper creates a new MarketScraper. maxMarkets of 0 means no cap.
func NewMarketScraper(syncer MarketSyncer, fetcher MarketFetcher, archiver *SnapshotArchiver, maxMarkets int, pageDelay time.Duration, logger *slog.Logger) *MarketScraper {
	return &MarketScraper{
		marketSvc:  syncer,
		fetcher:    fetcher,
		archiver:   archiver,
		maxMarkets: maxMarkets,
		pageDelay:  pageDelay,
		logger:     logger.With(slog.String("component", "market_scraper")),
	}
}

// Run executes a single scrape: it pages through the full listing, syncs
// each page to the store, and hands the complete snapshot to the archiver.
func (s *MarketScraper) Run(ctx context.Context) error {
	var all []domain.Market
	cursor := ""
	totalSynced := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("market scraper context cancelled: %w", err)
		}

		markets, next, err := s.fetcher.GetMarketsPage(ctx, cursor)
		if err != nil {
			return fmt.Errorf("fetching markets at cursor %q: %w", cursor, err)
		}
		if len(markets) == 0 {
			break
		}

		if err := s.marketSvc.SyncMarkets(ctx, markets); err != nil {
			return fmt.Errorf("syncing %d markets: %w", len(markets), err)
		}

		all = append(all, markets...)
		totalSynced += len(markets)
		s.logger.Info("synced market batch",
			slog.Int("batch_size", len(markets)),
			slog.Int("total_synced", totalSynced),
		)

		if s.maxMarkets > 0 && totalSynced >= s.maxMarkets {
			s.logger.Info("market cap reached", slog.Int("max_markets", s.maxMarkets))
			break
		}
		if next == "" {
			break
		}
		cursor = next

		if s.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pageDelay):
			}
		}
	}

	if s.archiver != nil && len(all) > 0 {
		if err := s.archiver.ArchiveSnapshot(ctx, all, time.Now().UTC()); err != nil {
			// Archival is best effort; the store already has the data.
			s.logger.Warn("snapshot archive failed", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("market scrape complete", slog.Int("total_synced", totalSynced))
	return nil
}

// RunLoop runs the scraper on a repeating interval until the context is
// cancelled.
func (s *MarketScraper) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := s.Run(ctx); err != nil {
		s.logger.Error("market scrape failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market scraper loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("market scrape failed", slog.String("error", err.Error()))
			}
		}
	}
}
