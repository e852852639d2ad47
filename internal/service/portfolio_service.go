package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/ledger"
)

// TradeChannel is the signal bus channel carrying executed-trade events.
const TradeChannel = "trades"

// tradeLockKey serializes trade execution across API replicas sharing the
// portfolio row.
const tradeLockKey = "portfolio:trade"

// PortfolioService owns the paper portfolio: trade execution, valuation, and
// reset. The in-memory ledger is authoritative during a run; every mutation
// is written through to the store.
type PortfolioService struct {
	ledger *ledger.Ledger
	store  domain.PortfolioStore
	pairs  *PairService
	prices domain.PriceCache
	bus    domain.SignalBus
	locks  domain.LockManager
	logger *slog.Logger
}

// NewPortfolioService creates a PortfolioService. bus and locks may be nil
// for single-process deployments.
func NewPortfolioService(
	led *ledger.Ledger,
	store domain.PortfolioStore,
	pairs *PairService,
	prices domain.PriceCache,
	bus domain.SignalBus,
	locks domain.LockManager,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		ledger: led,
		store:  store,
		pairs:  pairs,
		prices: prices,
		bus:    bus,
		locks:  locks,
		logger: logger.With(slog.String("component", "portfolio_service")),
	}
}

// Init loads the persisted portfolio into the ledger, seeding the store with
// a fresh portfolio on first run.
func (s *PortfolioService) Init(ctx context.Context) error {
	p, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		fresh := s.ledger.Snapshot()
		if err := s.store.Save(ctx, fresh); err != nil {
			return fmt.Errorf("portfolio_service: seed portfolio: %w", err)
		}
		s.logger.InfoContext(ctx, "portfolio seeded", slog.Float64("cash", fresh.Cash))
		return nil
	}
	if err != nil {
		return fmt.Errorf("portfolio_service: load portfolio: %w", err)
	}

	s.ledger.Restore(p)
	s.logger.InfoContext(ctx, "portfolio restored",
		slog.Float64("cash", p.Cash),
		slog.Int("positions", len(p.Positions)),
		slog.Int("trade_count", p.TradeCount),
	)
	return nil
}

// ExecuteTrade runs a paper trade against the pair's current prices. The
// pair is re-read and refreshed so the ledger verifies the opportunity at
// execution time, not at listing time.
func (s *PortfolioService) ExecuteTrade(ctx context.Context, pairID string, amount float64) (domain.TradeRecord, domain.Portfolio, error) {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, tradeLockKey, 10*time.Second)
		if err != nil {
			return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("portfolio_service: trade lock: %w", err)
		}
		defer unlock()
	}

	pair, err := s.pairs.RefreshedPair(ctx, pairID)
	if err != nil {
		return domain.TradeRecord{}, domain.Portfolio{}, err
	}

	rec, after, err := s.ledger.ApplyTrade(pair, amount)
	if err != nil {
		return domain.TradeRecord{}, domain.Portfolio{}, err
	}

	if err := s.store.Save(ctx, after); err != nil {
		return domain.TradeRecord{}, domain.Portfolio{}, fmt.Errorf("portfolio_service: save portfolio: %w", err)
	}
	if err := s.store.LogTrade(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "trade log write failed",
			slog.String("trade_id", rec.ID),
			slog.String("error", err.Error()),
		)
		// The portfolio row is already consistent; the log entry is lost.
	}

	s.publishTrade(ctx, rec)

	s.logger.InfoContext(ctx, "trade executed",
		slog.String("pair_id", pairID),
		slog.Float64("amount", amount),
		slog.Float64("cash_after", after.Cash),
	)
	return rec, after, nil
}

// View returns the mark-to-market portfolio valuation using cached live
// quotes. Positions without a quote are reported with unknown value.
func (s *PortfolioService) View(ctx context.Context) domain.PortfolioView {
	quotes := s.loadQuotes(ctx)

	return s.ledger.MarkToMarket(func(marketID string, outcome domain.Outcome) *float64 {
		q, ok := quotes[marketID]
		if !ok {
			return nil
		}
		if outcome == domain.OutcomeYes {
			return q.Yes
		}
		return q.No
	})
}

// Reset wipes positions and restores the starting cash.
func (s *PortfolioService) Reset(ctx context.Context) (domain.Portfolio, error) {
	fresh := s.ledger.Reset()
	if err := s.store.Save(ctx, fresh); err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_service: save reset: %w", err)
	}
	s.logger.InfoContext(ctx, "portfolio reset", slog.Float64("cash", fresh.Cash))
	return fresh, nil
}

// Trades returns the trade log, newest first.
func (s *PortfolioService) Trades(ctx context.Context, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	trades, err := s.store.ListTrades(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: list trades: %w", err)
	}
	return trades, nil
}

// loadQuotes fetches cached quotes for every market the portfolio holds.
func (s *PortfolioService) loadQuotes(ctx context.Context) map[string]domain.QuotePair {
	if s.prices == nil {
		return nil
	}

	snap := s.ledger.Snapshot()
	idSet := make(map[string]struct{}, len(snap.Positions))
	for _, pos := range snap.Positions {
		idSet[pos.MarketID] = struct{}{}
	}
	if len(idSet) == 0 {
		return nil
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	quotes, err := s.prices.GetPrices(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "portfolio price lookup failed", slog.String("error", err.Error()))
		return nil
	}
	return quotes
}

func (s *PortfolioService) publishTrade(ctx context.Context, rec domain.TradeRecord) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, TradeChannel, payload); err != nil {
		s.logger.DebugContext(ctx, "publish trade event failed", slog.String("error", err.Error()))
	}
}
