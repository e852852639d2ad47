package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PAIRSCOUT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PAIRSCOUT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// Polymarket
	setStr(&cfg.Polymarket.ClobHost, "PAIRSCOUT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "PAIRSCOUT_POLYMARKET_WS_HOST")

	// Postgres
	setStr(&cfg.Postgres.DSN, "PAIRSCOUT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PAIRSCOUT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PAIRSCOUT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PAIRSCOUT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PAIRSCOUT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PAIRSCOUT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PAIRSCOUT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PAIRSCOUT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PAIRSCOUT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PAIRSCOUT_POSTGRES_RUN_MIGRATIONS")

	// Redis
	setBool(&cfg.Redis.Enabled, "PAIRSCOUT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PAIRSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PAIRSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PAIRSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PAIRSCOUT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PAIRSCOUT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PAIRSCOUT_REDIS_TLS_ENABLED")

	// S3
	setBool(&cfg.S3.Enabled, "PAIRSCOUT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PAIRSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PAIRSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "PAIRSCOUT_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "PAIRSCOUT_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "PAIRSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PAIRSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PAIRSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PAIRSCOUT_S3_FORCE_PATH_STYLE")

	// Advisor
	setStr(&cfg.Advisor.Provider, "PAIRSCOUT_ADVISOR_PROVIDER")
	setStr(&cfg.Advisor.APIKey, "OPENAI_API_KEY") // conventional fallback
	setStr(&cfg.Advisor.APIKey, "PAIRSCOUT_ADVISOR_API_KEY")
	setStr(&cfg.Advisor.BaseURL, "PAIRSCOUT_ADVISOR_BASE_URL")
	setStr(&cfg.Advisor.Model, "PAIRSCOUT_ADVISOR_MODEL")
	setFloat64(&cfg.Advisor.Temperature, "PAIRSCOUT_ADVISOR_TEMPERATURE")
	setInt(&cfg.Advisor.MaxTokens, "PAIRSCOUT_ADVISOR_MAX_TOKENS")
	setDuration(&cfg.Advisor.Timeout, "PAIRSCOUT_ADVISOR_TIMEOUT")
	setInt(&cfg.Advisor.MarketsLimit, "PAIRSCOUT_ADVISOR_MARKETS_LIMIT")
	setStr(&cfg.Advisor.MockDir, "PAIRSCOUT_ADVISOR_MOCK_DIR")

	// Pipeline
	setStringSlice(&cfg.Pipeline.Keywords, "PAIRSCOUT_PIPELINE_KEYWORDS")
	setDuration(&cfg.Pipeline.ScrapeInterval, "PAIRSCOUT_PIPELINE_SCRAPE_INTERVAL")
	setInt(&cfg.Pipeline.MaxMarkets, "PAIRSCOUT_PIPELINE_MAX_MARKETS")
	setInt(&cfg.Pipeline.TopPerKeyword, "PAIRSCOUT_PIPELINE_TOP_PER_KEYWORD")
	setDuration(&cfg.Pipeline.PageDelay, "PAIRSCOUT_PIPELINE_PAGE_DELAY")
	setBool(&cfg.Pipeline.PriceFeed, "PAIRSCOUT_PIPELINE_PRICE_FEED")

	// Portfolio
	setFloat64(&cfg.Portfolio.StartingCash, "PAIRSCOUT_PORTFOLIO_STARTING_CASH")

	// Server
	setBool(&cfg.Server.Enabled, "PAIRSCOUT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PAIRSCOUT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PAIRSCOUT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PAIRSCOUT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "PAIRSCOUT_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "PAIRSCOUT_SERVER_RATE_LIMIT_WINDOW")

	// Notify
	setStr(&cfg.Notify.TelegramToken, "PAIRSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PAIRSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PAIRSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PAIRSCOUT_NOTIFY_EVENTS")

	// Top-level
	setStr(&cfg.Mode, "PAIRSCOUT_MODE")
	setStr(&cfg.LogLevel, "PAIRSCOUT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
