package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Pipeline.Keywords = []string{"iran", "fed"}
	return cfg
}

func TestDefaultsValidateWithKeywords(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.Portfolio.StartingCash = -5
	cfg.Pipeline.TopPerKeyword = 1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "starting_cash")
	assert.Contains(t, err.Error(), "top_per_keyword")
}

func TestValidateAdvisorProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Advisor.Provider = "openai"
	cfg.Advisor.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required")

	cfg.Advisor.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}

func TestLoadTOMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
mode = "scan"
log_level = "debug"

[pipeline]
keywords = ["iran"]
scrape_interval = "5m"

[portfolio]
starting_cash = 2500.0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("PAIRSCOUT_PORTFOLIO_STARTING_CASH", "5000")
	t.Setenv("PAIRSCOUT_PIPELINE_KEYWORDS", "iran, bitcoin")
	t.Setenv("PAIRSCOUT_REDIS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.ScrapeInterval.Duration)
	assert.InDelta(t, 5000.0, cfg.Portfolio.StartingCash, 1e-9)
	assert.Equal(t, []string{"iran", "bitcoin"}, cfg.Pipeline.Keywords)
	assert.False(t, cfg.Redis.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)

	require.NoError(t, cfg.Validate())
}
