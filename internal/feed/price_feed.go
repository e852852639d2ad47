// Package feed bridges the live market WebSocket into the price cache and
// the UI signal bus.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/platform/polymarket"
)

// PriceChannel is the signal bus channel carrying live price events.
const PriceChannel = "prices"

// PriceEvent is the JSON shape published to the price channel for each
// update the feed accepts.
type PriceEvent struct {
	Event     string  `json:"event"`
	MarketID  string  `json:"market_id"`
	Outcome   string  `json:"outcome"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// tokenRef locates one side of one market.
type tokenRef struct {
	marketID string
	outcome  domain.Outcome
}

// TokenIndex maps WebSocket asset (token) IDs back to the market side they
// quote. Updates for unknown assets are dropped.
type TokenIndex map[string]tokenRef

// BuildTokenIndex indexes the YES and NO token IDs of the given markets.
// Markets without token IDs contribute nothing; their prices can only come
// from REST snapshots.
func BuildTokenIndex(markets []domain.Market) TokenIndex {
	idx := make(TokenIndex, len(markets)*2)
	for _, m := range markets {
		if m.YesTokenID != "" {
			idx[m.YesTokenID] = tokenRef{marketID: m.ID, outcome: domain.OutcomeYes}
		}
		if m.NoTokenID != "" {
			idx[m.NoTokenID] = tokenRef{marketID: m.ID, outcome: domain.OutcomeNo}
		}
	}
	return idx
}

// AssetIDs returns the indexed token IDs for WebSocket subscription.
func (idx TokenIndex) AssetIDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	return ids
}

// Resolve maps an asset ID to its market and side.
func (idx TokenIndex) Resolve(assetID string) (marketID string, outcome domain.Outcome, ok bool) {
	ref, ok := idx[assetID]
	return ref.marketID, ref.outcome, ok
}

// PriceFeed subscribes to live price events for the markets referenced by
// stored pairs, writes each accepted quote to the price cache, and mirrors
// it onto the signal bus for the review UI.
type PriceFeed struct {
	ws     *polymarket.WSClient
	index  TokenIndex
	cache  domain.PriceCache
	bus    domain.SignalBus
	logger *slog.Logger
}

// New creates a PriceFeed over the given WebSocket client and token index.
// bus may be nil when no UI fan-out is wanted.
func New(ws *polymarket.WSClient, index TokenIndex, cache domain.PriceCache, bus domain.SignalBus, logger *slog.Logger) *PriceFeed {
	return &PriceFeed{
		ws:     ws,
		index:  index,
		cache:  cache,
		bus:    bus,
		logger: logger.With(slog.String("component", "price_feed")),
	}
}

// Run connects, subscribes, and processes updates until ctx is cancelled.
// The WebSocket client reconnects internally; Run only returns on shutdown.
func (f *PriceFeed) Run(ctx context.Context) error {
	f.ws.OnPriceUpdate(func(update polymarket.PriceUpdate) {
		f.handleUpdate(ctx, update)
	})

	if err := f.ws.Connect(ctx); err != nil {
		return err
	}
	if err := f.ws.Subscribe(ctx, f.index.AssetIDs()); err != nil {
		return err
	}

	f.logger.Info("price feed started", slog.Int("assets", len(f.index)))
	defer f.logger.Info("price feed stopped")

	<-ctx.Done()
	_ = f.ws.Close()
	return ctx.Err()
}

func (f *PriceFeed) handleUpdate(ctx context.Context, update polymarket.PriceUpdate) {
	marketID, outcome, ok := f.index.Resolve(update.AssetID)
	if !ok {
		return
	}
	if update.Price <= 0 || update.Price > 1 {
		return
	}

	if err := f.cache.SetPrice(ctx, marketID, outcome, update.Price, update.Timestamp); err != nil {
		f.logger.Warn("cache price update failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		return
	}

	if f.bus == nil {
		return
	}
	event := PriceEvent{
		Event:     "price_update",
		MarketID:  marketID,
		Outcome:   string(outcome),
		Price:     update.Price,
		Timestamp: update.Timestamp.Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := f.bus.Publish(ctx, PriceChannel, payload); err != nil {
		f.logger.Debug("publish price event failed", slog.String("error", err.Error()))
	}
}
