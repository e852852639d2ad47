package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pairscout/engine/internal/feed"
	"github.com/pairscout/engine/internal/ledger"
	"github.com/pairscout/engine/internal/pipeline"
	"github.com/pairscout/engine/internal/platform/polymarket"
	"github.com/pairscout/engine/internal/server"
	"github.com/pairscout/engine/internal/server/handler"
	"github.com/pairscout/engine/internal/server/ws"
	"github.com/pairscout/engine/internal/service"
	"github.com/pairscout/engine/web"
)

// services bundles the use-case layer shared by the API and the pipeline.
type services struct {
	markets   *service.MarketService
	pairs     *service.PairService
	portfolio *service.PortfolioService
}

// buildServices constructs the service layer and restores the persisted
// portfolio into the ledger.
func (a *App) buildServices(ctx context.Context, deps *Dependencies) (*services, error) {
	marketSvc := service.NewMarketService(deps.MarketStore, deps.PriceCache, a.logger)
	pairSvc := service.NewPairService(deps.PairStore, deps.PriceCache, a.logger)

	led := ledger.New(a.cfg.Portfolio.StartingCash)
	portfolioSvc := service.NewPortfolioService(
		led, deps.PortfolioStore, pairSvc,
		deps.PriceCache, deps.SignalBus, deps.LockManager,
		a.logger,
	)
	if err := portfolioSvc.Init(ctx); err != nil {
		return nil, fmt.Errorf("app: init portfolio: %w", err)
	}

	return &services{
		markets:   marketSvc,
		pairs:     pairSvc,
		portfolio: portfolioSvc,
	}, nil
}

// buildPipeline constructs the scrape-and-pair pipeline, returning the
// orchestrator and the pair builder (for targeted keyword rebuilds). The
// live price feed is included only when enabled and a price cache is
// available.
func (a *App) buildPipeline(ctx context.Context, deps *Dependencies, svcs *services) (*pipeline.Orchestrator, *pipeline.PairBuilder) {
	gamma := polymarket.NewGammaClient(a.cfg.Polymarket.ClobHost)
	scraper := pipeline.NewMarketScraper(
		svcs.markets, gamma, deps.Archiver,
		a.cfg.Pipeline.MaxMarkets, a.cfg.Pipeline.PageDelay.Duration,
		a.logger,
	)
	builder := pipeline.NewPairBuilder(
		deps.MarketStore, deps.PairStore, deps.Advisor, deps.Notifier,
		a.cfg.Pipeline.Keywords, a.cfg.Pipeline.TopPerKeyword,
		a.logger,
	)

	var priceFeed *feed.PriceFeed
	if a.cfg.Pipeline.PriceFeed && deps.PriceCache != nil {
		priceFeed = a.buildPriceFeed(ctx, deps)
	}

	orch := pipeline.NewOrchestrator(
		scraper, builder, priceFeed,
		a.cfg.Pipeline.ScrapeInterval.Duration,
		a.logger,
	)
	return orch, builder
}

// buildPriceFeed indexes the token IDs of the stored markets and returns a
// live feed watching them. Markets first seen by a later scrape are picked
// up after a restart.
func (a *App) buildPriceFeed(ctx context.Context, deps *Dependencies) *feed.PriceFeed {
	markets, err := deps.MarketStore.ListAll(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "price feed disabled: loading markets failed",
			slog.String("error", err.Error()),
		)
		return nil
	}

	index := feed.BuildTokenIndex(markets)
	if len(index.AssetIDs()) == 0 {
		a.logger.InfoContext(ctx, "price feed idle: no token IDs in store yet")
		return nil
	}

	wsClient := polymarket.NewWSClient(a.cfg.Polymarket.WsHost)
	return feed.New(wsClient, index, deps.PriceCache, deps.SignalBus, a.logger)
}

// startHTTPServer registers the API handlers and runs the server and the
// WebSocket hub on the errgroup until the context is cancelled.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	svcs *services,
	pipelineH *handler.PipelineHandler,
) {
	var dbPinger, cachePinger handler.Pinger
	if deps.PGClient != nil {
		dbPinger = deps.PGClient
	}
	if deps.RedisClient != nil {
		cachePinger = deps.RedisClient
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(dbPinger, cachePinger, a.logger),
		Markets:   handler.NewMarketHandler(svcs.markets, a.logger),
		Pairs:     handler.NewPairHandler(svcs.pairs, a.logger),
		Portfolio: handler.NewPortfolioHandler(svcs.portfolio, a.logger),
		Pipeline:  pipelineH,
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("app: ws hub: %w", err)
			}
			return nil
		})
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, web.Handler(), deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// ScanMode runs one scrape-and-pair cycle and exits. Used for cron-style
// deployments and manual refreshes.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	svcs, err := a.buildServices(ctx, deps)
	if err != nil {
		return err
	}

	orch, _ := a.buildPipeline(ctx, deps, svcs)
	if err := orch.RunOnce(ctx); err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	a.logger.InfoContext(ctx, "scan complete")
	return nil
}

// ServeMode runs the API server without the periodic pipeline. Manual
// pipeline triggers still run one cycle each.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	svcs, err := a.buildServices(ctx, deps)
	if err != nil {
		return err
	}

	orch, builder := a.buildPipeline(ctx, deps, svcs)

	g, ctx := errgroup.WithContext(ctx)

	triggerCh := make(chan struct{}, 1)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-triggerCh:
				if err := orch.RunOnce(ctx); err != nil {
					a.logger.ErrorContext(ctx, "manual pipeline run failed",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	})

	pipelineH := handler.NewPipelineHandler(a.logger).
		WithTriggerChannel(triggerCh).
		WithRebuilder(builder)
	a.startHTTPServer(ctx, g, deps, svcs, pipelineH)

	return waitGroup(g, a.logger)
}

// FullMode runs the API server, the periodic scrape-and-pair loop, and the
// live price feed together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	svcs, err := a.buildServices(ctx, deps)
	if err != nil {
		return err
	}

	orch, builder := a.buildPipeline(ctx, deps, svcs)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app: pipeline: %w", err)
		}
		return nil
	})

	pipelineH := handler.NewPipelineHandler(a.logger).
		WithTriggerChannel(orch.TriggerChannel()).
		WithRebuilder(builder)
	a.startHTTPServer(ctx, g, deps, svcs, pipelineH)

	return waitGroup(g, a.logger)
}

// waitGroup waits for every goroutine and treats context cancellation as a
// clean shutdown.
func waitGroup(g *errgroup.Group, logger *slog.Logger) error {
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("application stopped cleanly")
	return nil
}
