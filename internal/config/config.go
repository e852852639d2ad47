// Package config defines the top-level configuration for the scouting engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PAIRSCOUT_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Advisor    AdvisorConfig    `toml:"advisor"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Portfolio  PortfolioConfig  `toml:"portfolio"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	ClobHost string `toml:"clob_host"`
	WsHost   string `toml:"ws_host"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the raw scrape
// archive. Archiving is skipped when disabled.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AdvisorConfig selects and configures the pairing advisor.
type AdvisorConfig struct {
	// Provider is one of "openai", "mock", or "none". With "none" every
	// keyword falls back to exhaustive combinations.
	Provider     string   `toml:"provider"`
	APIKey       string   `toml:"api_key"`
	BaseURL      string   `toml:"base_url"`
	Model        string   `toml:"model"`
	Temperature  float64  `toml:"temperature"`
	MaxTokens    int      `toml:"max_tokens"`
	Timeout      duration `toml:"timeout"`
	MarketsLimit int      `toml:"markets_limit"`
	MockDir      string   `toml:"mock_dir"`
}

// PipelineConfig holds scrape-and-pair pipeline parameters.
type PipelineConfig struct {
	Keywords       []string `toml:"keywords"`
	ScrapeInterval duration `toml:"scrape_interval"`
	MaxMarkets     int      `toml:"max_markets"`     // cap on markets fetched per scrape, 0 = no cap
	TopPerKeyword  int      `toml:"top_per_keyword"` // most liquid markets kept per keyword
	PageDelay      duration `toml:"page_delay"`
	PriceFeed      bool     `toml:"price_feed"`
}

// PortfolioConfig holds paper-trading parameters.
type PortfolioConfig struct {
	StartingCash float64 `toml:"starting_cash"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost: "https://clob.polymarket.com",
			WsHost:   "wss://ws-subscriptions-clob.polymarket.com",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "pairscout",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "pairscout-data",
			Prefix:         "scrapes",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Advisor: AdvisorConfig{
			Provider:     "none",
			Model:        "gpt-4o-mini",
			Temperature:  0,
			MaxTokens:    2000,
			Timeout:      duration{60 * time.Second},
			MarketsLimit: 100,
			MockDir:      "testdata/advisor",
		},
		Pipeline: PipelineConfig{
			Keywords:       []string{},
			ScrapeInterval: duration{15 * time.Minute},
			MaxMarkets:     0,
			TopPerKeyword:  25,
			PageDelay:      duration{200 * time.Millisecond},
			PriceFeed:      true,
		},
		Portfolio: PortfolioConfig{
			StartingCash: 10000,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"arbitrage_found", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"scan":  true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validAdvisors enumerates the accepted values for Advisor.Provider.
var validAdvisors = map[string]bool{
	"openai": true,
	"mock":   true,
	"none":   true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, scan, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.WsHost == "" {
		errs = append(errs, "polymarket: ws_host must not be empty")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Advisor
	if !validAdvisors[strings.ToLower(c.Advisor.Provider)] {
		errs = append(errs, fmt.Sprintf("advisor: unknown provider %q (valid: openai, mock, none)", c.Advisor.Provider))
	}
	if strings.ToLower(c.Advisor.Provider) == "openai" && c.Advisor.APIKey == "" {
		errs = append(errs, "advisor: api_key is required for the openai provider")
	}
	if strings.ToLower(c.Advisor.Provider) == "mock" && c.Advisor.MockDir == "" {
		errs = append(errs, "advisor: mock_dir is required for the mock provider")
	}

	// Pipeline
	needsPipeline := c.Mode == "scan" || c.Mode == "full"
	if needsPipeline && len(c.Pipeline.Keywords) == 0 {
		errs = append(errs, "pipeline: at least one keyword is required for mode "+c.Mode)
	}
	if c.Pipeline.ScrapeInterval.Duration <= 0 {
		errs = append(errs, "pipeline: scrape_interval must be > 0")
	}
	if c.Pipeline.TopPerKeyword < 2 {
		errs = append(errs, "pipeline: top_per_keyword must be >= 2 (a pair needs two markets)")
	}

	// Portfolio
	if c.Portfolio.StartingCash <= 0 {
		errs = append(errs, "portfolio: starting_cash must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
