// ValutaTrade — local currency trading simulator.
//
// Main CLI entrypoint using the cobra command framework. Accounts,
// portfolios, the rate snapshot, and the quote history all live as flat JSON
// files under the configured data directory; exchange rates are synchronized
// from ExchangeRate-API (fiat) and CoinGecko (crypto).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"valutatrade/internal/config"
	"valutatrade/internal/httpx"
	"valutatrade/internal/journal"
	"valutatrade/internal/logging"
	"valutatrade/internal/portfolio"
	"valutatrade/internal/rates"
	"valutatrade/internal/rates/coingecko"
	"valutatrade/internal/rates/exchangerate"
	"valutatrade/internal/rates/ratelimit"
	"valutatrade/internal/snapshot"
	"valutatrade/internal/updater"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfg      *config.Config
	log      *slog.Logger
	upd      *updater.Updater
	hist     *journal.Journal
	accounts *portfolio.Service
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "valutatrade",
	Short:         "ValutaTrade — currency trading simulator with live exchange rates",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		maybeAutoUpdate(cmd)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./valutatrade.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateRatesCmd)
	rootCmd.AddCommand(getRateCmd)
	rootCmd.AddCommand(showRatesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearHistoryCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(currenciesCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
}

// setup resolves configuration once and wires the providers, stores, and
// services used by every command.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	log = logging.New(logging.ParseLevel(cfg.Logging.Level))

	hc := httpx.New(cfg.Providers.Timeout())

	var providers []rates.Provider
	if cfg.Providers.ExchangeRate.Enabled {
		providers = append(providers, exchangerate.New(exchangerate.Config{
			APIKey: cfg.Providers.ExchangeRate.APIKey,
			URL:    cfg.Providers.ExchangeRate.URL,
		}, hc))
	}
	if cfg.Providers.CoinGecko.Enabled {
		var p rates.Provider = coingecko.New(coingecko.Config{URL: cfg.Providers.CoinGecko.URL}, hc)
		if iv := cfg.Providers.CoinGecko.MinRequestIntervalSec; iv > 0 {
			p = &ratelimit.MinInterval{P: p, Interval: time.Duration(iv) * time.Second}
		}
		providers = append(providers, p)
	}

	hist = journal.New(cfg.Rates.HistoryFile)
	upd = updater.New(updater.Config{
		Providers: providers,
		Store:     snapshot.NewStore(cfg.Rates.SnapshotFile),
		Journal:   hist,
		TTL:       cfg.Rates.TTL(),
		Logger:    log,
	})

	accounts = portfolio.NewService(
		portfolio.NewStore(cfg.DataDir),
		&updaterPricer{},
		cfg.Rates.BaseCurrency,
		log,
	)
	return nil
}

// defaultOptions builds the refresh options resolved from config. Commands
// layer their flags on top.
func defaultOptions() updater.Options {
	mode := snapshot.Merge
	if cfg.Rates.StrictSnapshot {
		mode = snapshot.Strict
	}
	scope := rates.DefaultScope(cfg.Rates.BaseCurrency)
	scope.AllFiat = cfg.Rates.AllFiat
	return updater.Options{
		Scope:         scope,
		Mode:          mode,
		RecordHistory: !cfg.Rates.HistoryDisabled,
	}
}

// maybeAutoUpdate runs the best-effort daily refresh at startup. It compares
// calendar dates (UTC) only and never blocks a command on failure.
func maybeAutoUpdate(cmd *cobra.Command) {
	if !cfg.Rates.AutoUpdateOnStart {
		return
	}
	switch cmd.Name() {
	case "update-rates", "clear-history", "schedule", "version", "help", "completion":
		return
	}
	snap, err := upd.Snapshot()
	if err != nil {
		return
	}
	if !upd.NeedsDailyRefresh(snap, time.Now().UTC()) {
		return
	}
	res, err := upd.RefreshNow(cmd.Context(), defaultOptions())
	if err != nil {
		log.Warn("startup auto-update failed", "err", err)
		return
	}
	fmt.Printf("[auto] rates refreshed on start: %d pairs updated\n", res.PairsUpdated)
}

// updaterPricer adapts the orchestrator's read path to the portfolio
// service's Pricer interface.
type updaterPricer struct{}

func (updaterPricer) Rate(ctx context.Context, from, to string) (float64, error) {
	entry, err := upd.Rate(ctx, from+"_"+to, defaultOptions())
	if err != nil {
		return 0, err
	}
	return entry.Rate, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("valutatrade %s (commit %s)\n", version, commit)
	},
}
