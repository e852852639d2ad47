package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pairscout/engine/internal/feed"
)

// Orchestrator manages the background goroutines: the scrape-and-pair loop
// and the live price feed.
type Orchestrator struct {
	scraper        *MarketScraper
	pairBuilder    *PairBuilder
	priceFeed      *feed.PriceFeed // nil disables the live feed
	scrapeInterval time.Duration
	trigger        chan struct{}
	logger         *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	scraper *MarketScraper,
	pairBuilder *PairBuilder,
	priceFeed *feed.PriceFeed,
	scrapeInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scraper:        scraper,
		pairBuilder:    pairBuilder,
		priceFeed:      priceFeed,
		scrapeInterval: scrapeInterval,
		trigger:        make(chan struct{}, 1),
		logger:         logger.With(slog.String("component", "orchestrator")),
	}
}

// TriggerChannel returns the channel that enqueues a manual pipeline run.
// Sends must be non-blocking; a pending trigger coalesces with the next one.
func (o *Orchestrator) TriggerChannel() chan<- struct{} {
	return o.trigger
}

// RunOnce executes one scrape followed by one pair rebuild. Used by the scan
// mode and the manual pipeline trigger.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	if err := o.scraper.Run(ctx); err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	if err := o.pairBuilder.Run(ctx); err != nil {
		return fmt.Errorf("rebuild pairs: %w", err)
	}
	return nil
}

// Run starts the periodic scrape-and-pair loop and the price feed as
// concurrent goroutines using an errgroup. Each goroutine respects ctx
// cancellation; a non-context error from either cancels the other.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline starting",
		slog.Duration("scrape_interval", o.scrapeInterval),
		slog.Bool("price_feed", o.priceFeed != nil),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.runScrapeLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("scrape loop: %w", err)
	})

	if o.priceFeed != nil {
		g.Go(func() error {
			err := o.priceFeed.Run(ctx)
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil // clean shutdown
			}
			return fmt.Errorf("price feed: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline stopped cleanly")
	return nil
}

// runScrapeLoop runs scrape-then-rebuild immediately and then on every tick.
func (o *Orchestrator) runScrapeLoop(ctx context.Context) error {
	if err := o.RunOnce(ctx); err != nil {
		o.logger.Error("pipeline run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(o.scrapeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.RunOnce(ctx); err != nil {
				o.logger.Error("pipeline run failed", slog.String("error", err.Error()))
			}
		case <-o.trigger:
			o.logger.Info("manual pipeline trigger")
			if err := o.RunOnce(ctx); err != nil {
				o.logger.Error("pipeline run failed", slog.String("error", err.Error()))
			}
		}
	}
}
