package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pairscout/engine/internal/advisor"
	s3blob "github.com/pairscout/engine/internal/blob/s3"
	"github.com/pairscout/engine/internal/cache/redis"
	"github.com/pairscout/engine/internal/config"
	"github.com/pairscout/engine/internal/domain"
	"github.com/pairscout/engine/internal/notify"
	"github.com/pairscout/engine/internal/pipeline"
	"github.com/pairscout/engine/internal/store/postgres"
)

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function. Optional members (Redis-backed caches, the archiver, the
// advisor) are nil when disabled in the configuration.
type Dependencies struct {
	// Stores
	MarketStore    domain.MarketStore
	PairStore      domain.PairStore
	PortfolioStore domain.PortfolioStore

	// Caches (nil when redis is disabled)
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage (nil when s3 is disabled)
	Archiver *pipeline.SnapshotArchiver

	// Advisor (nil for provider "none")
	Advisor advisor.Advisor

	// Notifications
	Notifier *notify.Notifier

	// Raw clients, kept for health probes.
	PGClient    *postgres.Client
	RedisClient *redis.Client
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PGClient = pgClient
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.PairStore = postgres.NewPairStore(pool)
	deps.PortfolioStore = postgres.NewPortfolioStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RedisClient = redisClient
		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 blob storage (optional, feeds the scrape archive) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = pipeline.NewSnapshotArchiver(s3blob.NewWriter(s3Client), cfg.S3.Prefix, logger)
	}

	// --- Advisor ---
	switch strings.ToLower(cfg.Advisor.Provider) {
	case "openai":
		adv, err := advisor.NewOpenAI(advisor.OpenAIConfig{
			APIKey:       cfg.Advisor.APIKey,
			BaseURL:      cfg.Advisor.BaseURL,
			Model:        cfg.Advisor.Model,
			Temperature:  float32(cfg.Advisor.Temperature),
			MaxTokens:    cfg.Advisor.MaxTokens,
			Timeout:      cfg.Advisor.Timeout.Duration,
			MarketsLimit: cfg.Advisor.MarketsLimit,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: advisor: %w", err)
		}
		deps.Advisor = adv
	case "mock":
		deps.Advisor = advisor.NewMock(cfg.Advisor.MockDir)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
