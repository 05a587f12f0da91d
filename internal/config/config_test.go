package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"valutatrade/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, "USD", cfg.Rates.BaseCurrency)
	require.Equal(t, 300, cfg.Rates.TTLSeconds)
	require.Equal(t, 5*time.Minute, cfg.Rates.TTL())
	require.False(t, cfg.Rates.StrictSnapshot)
	require.True(t, cfg.Rates.AutoUpdateOnStart)
	require.Equal(t, filepath.Join("data", "rates.json"), cfg.Rates.SnapshotFile)
	require.Equal(t, filepath.Join("data", "exchange_rates.json"), cfg.Rates.HistoryFile)

	require.Equal(t, 10*time.Second, cfg.Providers.Timeout())
	require.True(t, cfg.Providers.ExchangeRate.Enabled)
	require.True(t, cfg.Providers.CoinGecko.Enabled)
	require.Equal(t, "https://api.coingecko.com/api/v3/simple/price", cfg.Providers.CoinGecko.URL)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valutatrade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/valutatrade
rates:
  base_currency: EUR
  ttl_seconds: 60
  strict_snapshot: true
providers:
  timeout_seconds: 3
  exchangerate:
    api_key: abc123
  coingecko:
    min_request_interval_sec: 2
logging:
  level: debug
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/valutatrade", cfg.DataDir)
	require.Equal(t, "EUR", cfg.Rates.BaseCurrency)
	require.Equal(t, time.Minute, cfg.Rates.TTL())
	require.True(t, cfg.Rates.StrictSnapshot)
	require.Equal(t, 3*time.Second, cfg.Providers.Timeout())
	require.Equal(t, "abc123", cfg.Providers.ExchangeRate.APIKey)
	require.Equal(t, 2, cfg.Providers.CoinGecko.MinRequestIntervalSec)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Derived paths follow the configured data dir.
	require.Equal(t, filepath.Join("/var/lib/valutatrade", "rates.json"), cfg.Rates.SnapshotFile)
	require.Equal(t, filepath.Join("/var/lib/valutatrade", "exchange_rates.json"), cfg.Rates.HistoryFile)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VALUTATRADE_RATES_TTL_SECONDS", "42")
	t.Setenv("VALUTATRADE_PROVIDERS_EXCHANGERATE_API_KEY", "from-env")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, 42, cfg.Rates.TTLSeconds)
	require.Equal(t, "from-env", cfg.Providers.ExchangeRate.APIKey)
}
