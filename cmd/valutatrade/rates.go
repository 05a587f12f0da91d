package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"valutatrade/internal/currency"
	"valutatrade/internal/rates"
	"valutatrade/internal/rates/coingecko"
	"valutatrade/internal/rates/exchangerate"
	"valutatrade/internal/snapshot"
)

// sourceName maps the --source flag values onto provider identities.
func sourceName(flag string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
		return "", nil
	case "exchangerate", strings.ToLower(exchangerate.Source):
		return exchangerate.Source, nil
	case "coingecko", strings.ToLower(coingecko.Source):
		return coingecko.Source, nil
	}
	return "", fmt.Errorf("unknown source %q (want exchangerate or coingecko)", flag)
}

var updateRatesCmd = &cobra.Command{
	Use:   "update-rates",
	Short: "Fetch fresh exchange rates and update the local snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := defaultOptions()

		src, _ := cmd.Flags().GetString("source")
		name, err := sourceName(src)
		if err != nil {
			return err
		}
		opts.Source = name
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			opts.Mode = snapshot.Strict
		}
		if noHist, _ := cmd.Flags().GetBool("no-history"); noHist {
			opts.RecordHistory = false
		}
		if allFiat, _ := cmd.Flags().GetBool("all-fiat"); allFiat {
			opts.Scope.AllFiat = true
		}

		res, err := upd.RefreshNow(cmd.Context(), opts)
		if err != nil {
			return err
		}
		for name, n := range res.PerSource {
			fmt.Printf("%s: %d rates\n", name, n)
		}
		fmt.Printf("snapshot: %d updated, %d skipped; history: %d added, %d deduplicated\n",
			res.PairsUpdated, res.PairsSkipped, res.HistoryAdded, res.HistoryDeduped)
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		return nil
	},
}

var getRateCmd = &cobra.Command{
	Use:   "get-rate FROM TO",
	Short: "Print the cached rate for a pair, refreshing first if stale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from := currency.Normalize(args[0])
		to := currency.Normalize(args[1])
		if _, err := currency.Get(from); err != nil {
			return err
		}
		if _, err := currency.Get(to); err != nil {
			return err
		}
		entry, err := upd.Rate(cmd.Context(), from+"_"+to, defaultOptions())
		if err != nil {
			return err
		}
		fmt.Printf("%s_%s = %g (source %s, updated %s)\n",
			from, to, entry.Rate, entry.Source, rates.FormatTimestamp(entry.UpdatedAt))
		return nil
	},
}

var showRatesCmd = &cobra.Command{
	Use:   "show-rates",
	Short: "List the cached snapshot entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		term, _ := cmd.Flags().GetString("filter")
		list, err := upd.List(snapshot.Filter{Term: term})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no cached rates; run update-rates first")
			return nil
		}
		for _, row := range list {
			fmt.Printf("%-10s %14g  %-16s %s\n",
				row.PairID, row.Rate, row.Source, rates.FormatTimestamp(row.UpdatedAt))
		}
		snap, err := upd.Snapshot()
		if err == nil && snap.LastRefresh != nil {
			fmt.Printf("last refresh: %s\n", rates.FormatTimestamp(*snap.LastRefresh))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the journaled quote history",
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, _ := cmd.Flags().GetString("pair")
		pair = strings.ToUpper(strings.TrimSpace(pair))
		recs, err := hist.Read()
		if err != nil {
			return err
		}
		shown := 0
		for _, r := range recs {
			if pair != "" && r.FromCurrency+"_"+r.ToCurrency != pair {
				continue
			}
			fmt.Printf("%s  %s_%s = %g  (%s)\n",
				rates.FormatTimestamp(r.Timestamp), r.FromCurrency, r.ToCurrency, r.Rate, r.Source)
			shown++
		}
		if shown == 0 {
			fmt.Println("no history records")
		}
		return nil
	},
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Truncate the quote history journal (destructive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := hist.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d history records\n", removed)
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Refresh rates periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		opts := defaultOptions()
		src, _ := cmd.Flags().GetString("source")
		name, err := sourceName(src)
		if err != nil {
			return err
		}
		opts.Source = name

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := upd.RunSchedule(ctx, interval, opts); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List the supported currency registry",
	Run: func(cmd *cobra.Command, args []string) {
		for _, c := range currency.List() {
			fmt.Println(c.DisplayInfo())
		}
	},
}

func init() {
	updateRatesCmd.Flags().String("source", "", "restrict to one provider (exchangerate or coingecko)")
	updateRatesCmd.Flags().Bool("strict", false, "replace the snapshot with exactly this fetch")
	updateRatesCmd.Flags().Bool("no-history", false, "skip journaling this cycle")
	updateRatesCmd.Flags().Bool("all-fiat", false, "fetch every fiat code the provider returns")

	showRatesCmd.Flags().String("filter", "", "fiat, crypto, a currency code, or a pair id")
	historyCmd.Flags().String("pair", "", "only records for this pair, e.g. BTC_USD")

	scheduleCmd.Flags().Duration("interval", 60*time.Second, "time between refresh cycles")
	scheduleCmd.Flags().String("source", "", "restrict to one provider (exchangerate or coingecko)")
}
