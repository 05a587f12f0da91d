// Package config loads the application configuration from an optional YAML
// file plus VALUTATRADE_* environment overrides. Everything is resolved once
// into a plain Config value; core packages take explicit parameters and never
// read the process environment themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved application configuration.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	Rates     RatesConfig     `mapstructure:"rates"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RatesConfig controls the refresh orchestrator and the local rate files.
type RatesConfig struct {
	BaseCurrency      string `mapstructure:"base_currency"`
	TTLSeconds        int    `mapstructure:"ttl_seconds"`
	StrictSnapshot    bool   `mapstructure:"strict_snapshot"`
	HistoryDisabled   bool   `mapstructure:"history_disabled"`
	AllFiat           bool   `mapstructure:"all_fiat"`
	AutoUpdateOnStart bool   `mapstructure:"auto_update_on_start"`
	SnapshotFile      string `mapstructure:"snapshot_file"`
	HistoryFile       string `mapstructure:"history_file"`
}

// ProvidersConfig holds external provider endpoints and credentials.
type ProvidersConfig struct {
	TimeoutSeconds int                `mapstructure:"timeout_seconds"`
	ExchangeRate   ExchangeRateConfig `mapstructure:"exchangerate"`
	CoinGecko      CoinGeckoConfig    `mapstructure:"coingecko"`
}

// ExchangeRateConfig configures the fiat provider (ExchangeRate-API).
type ExchangeRateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	// URL, when set, overrides the key-based endpoint entirely.
	URL string `mapstructure:"url"`
}

// CoinGeckoConfig configures the crypto provider.
type CoinGeckoConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	// MinRequestIntervalSec throttles calls on the rate-limited free tier.
	MinRequestIntervalSec int `mapstructure:"min_request_interval_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TTL returns the snapshot freshness threshold as a duration.
func (c RatesConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Timeout returns the per-request HTTP timeout as a duration.
func (c ProvidersConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from valutatrade.yaml (working directory or
// ~/.valutatrade) if present, then applies environment overrides. A missing
// config file is not an error; an explicit path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("valutatrade")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".valutatrade"))
	}

	v.SetEnvPrefix("VALUTATRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if path != "" || !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Rates.SnapshotFile == "" {
		cfg.Rates.SnapshotFile = filepath.Join(cfg.DataDir, "rates.json")
	}
	if cfg.Rates.HistoryFile == "" {
		cfg.Rates.HistoryFile = filepath.Join(cfg.DataDir, "exchange_rates.json")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")

	v.SetDefault("rates.base_currency", "USD")
	v.SetDefault("rates.ttl_seconds", 300)
	v.SetDefault("rates.strict_snapshot", false)
	v.SetDefault("rates.history_disabled", false)
	v.SetDefault("rates.all_fiat", false)
	v.SetDefault("rates.auto_update_on_start", true)

	v.SetDefault("providers.timeout_seconds", 10)
	v.SetDefault("providers.exchangerate.enabled", true)
	// Empty defaults so environment overrides are visible to AutomaticEnv.
	v.SetDefault("providers.exchangerate.api_key", "")
	v.SetDefault("providers.exchangerate.url", "")
	v.SetDefault("providers.coingecko.enabled", true)
	v.SetDefault("providers.coingecko.url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("providers.coingecko.min_request_interval_sec", 0)

	v.SetDefault("logging.level", "info")
}

func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}
