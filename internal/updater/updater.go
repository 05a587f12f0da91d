// Package updater is the refresh orchestrator: it decides when the local
// rate snapshot is stale, fans out to the provider adapters, normalizes their
// raw quotes into bidirectional pairs, and commits the results to the
// snapshot store and the history journal.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"valutatrade/internal/journal"
	"valutatrade/internal/rates"
	"valutatrade/internal/snapshot"
)

//go:generate mockgen -package=updater_test -destination=mock_provider_test.go valutatrade/internal/rates Provider

// Options controls one refresh cycle.
type Options struct {
	Scope rates.Scope
	Mode  snapshot.Mode
	// Source restricts the cycle to the named provider; empty means all.
	Source string
	// RecordHistory journals the cycle's quotes. The snapshot is written
	// either way.
	RecordHistory bool
}

// Result summarizes a finished refresh cycle.
type Result struct {
	// PairsUpdated and PairsSkipped count snapshot reconciliation outcomes;
	// skipped means a stale-merge rejection.
	PairsUpdated int
	PairsSkipped int
	// HistoryAdded and HistoryDeduped count journal outcomes.
	HistoryAdded   int
	HistoryDeduped int
	// PerSource counts raw quotes per provider name.
	PerSource map[string]int
	// Warnings lists non-fatal provider failures and dropped pairs.
	Warnings []string
	// StartedAt is the cycle start instant, also written as last_refresh.
	StartedAt time.Time
}

// Hook observes refresh cycle boundaries. It replaces implicit logging
// interception with an explicit call at start/success/failure.
type Hook interface {
	CycleStarted(scope rates.Scope, mode snapshot.Mode)
	CycleSucceeded(res Result)
	CycleFailed(err error)
}

// PairNotFoundError means the snapshot has no entry for the pair.
type PairNotFoundError struct {
	PairID string
}

func (e *PairNotFoundError) Error() string {
	return fmt.Sprintf("no cached rate for %s", e.PairID)
}

// Config wires an Updater.
type Config struct {
	Providers []rates.Provider
	Store     *snapshot.Store
	Journal   *journal.Journal
	// TTL is the snapshot freshness threshold; 0 means DefaultTTL.
	TTL    time.Duration
	Hook   Hook
	Logger *slog.Logger
}

// DefaultTTL is the staleness threshold when none is configured.
const DefaultTTL = 300 * time.Second

// Updater owns all writes to the snapshot and journal files. A single
// process-wide instance is assumed; concurrent RefreshNow calls within the
// process serialize on an internal mutex.
type Updater struct {
	providers []rates.Provider
	store     *snapshot.Store
	journal   *journal.Journal
	ttl       time.Duration
	hook      Hook
	log       *slog.Logger

	mu sync.Mutex
}

func New(cfg Config) *Updater {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	hook := cfg.Hook
	if hook == nil {
		hook = &logHook{log: log}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Updater{
		providers: cfg.Providers,
		store:     cfg.Store,
		journal:   cfg.Journal,
		ttl:       ttl,
		hook:      hook,
		log:       log,
	}
}

// TTL returns the configured staleness threshold.
func (u *Updater) TTL() time.Duration { return u.ttl }

type fetchOutcome struct {
	name   string
	quotes []rates.RawQuote
	err    error
}

// RefreshNow runs one refresh cycle: fetch from the selected providers
// concurrently, normalize, reconcile, persist, journal. A failing provider is
// downgraded to a warning unless every provider failed, in which case the
// prior snapshot is left untouched and an AllProvidersFailedError is
// returned. Persistence failures are always fatal for the cycle.
func (u *Updater) RefreshNow(ctx context.Context, opts Options) (Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	start := time.Now().UTC().Truncate(time.Second)
	if opts.Mode == "" {
		opts.Mode = snapshot.Merge
	}
	u.hook.CycleStarted(opts.Scope, opts.Mode)

	selected, err := u.selectProviders(opts.Source)
	if err != nil {
		u.hook.CycleFailed(err)
		return Result{}, err
	}

	// Fetching: each adapter call is independent; both complete (or fail)
	// before committing begins.
	outcomes := make([]fetchOutcome, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range selected {
		g.Go(func() error {
			qs, err := p.Fetch(gctx, opts.Scope)
			outcomes[i] = fetchOutcome{name: p.Name(), quotes: qs, err: err}
			return nil
		})
	}
	g.Wait()

	res := Result{PerSource: map[string]int{}, StartedAt: start}
	var raw []rates.RawQuote
	var failures []error
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, o.err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", o.name, o.err))
			u.log.Warn("provider fetch failed", "provider", o.name, "err", o.err)
			continue
		}
		res.PerSource[o.name] = len(o.quotes)
		raw = append(raw, o.quotes...)
	}
	if len(failures) == len(selected) {
		err := &rates.AllProvidersFailedError{Errs: failures}
		u.hook.CycleFailed(err)
		return Result{}, err
	}

	// Normalizing: a malformed rate drops the pair, not the cycle.
	quotes := make([]rates.Quote, 0, len(raw)*2)
	for _, rq := range raw {
		fwd, rev, err := rates.Expand(rq)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			u.log.Warn("dropping quote", "pair", rq.PairID(), "err", err)
			continue
		}
		quotes = append(quotes, fwd, rev)
	}

	// Committing: reconcile, persist, then journal.
	snap, err := u.store.Load()
	if err != nil {
		u.hook.CycleFailed(err)
		return Result{}, err
	}
	merged, updated, skipped := snapshot.Reconcile(snap, snapshot.FromQuotes(quotes), opts.Mode)
	merged.LastRefresh = &start
	res.PairsUpdated = updated
	res.PairsSkipped = skipped

	if err := u.store.Persist(merged); err != nil {
		u.hook.CycleFailed(err)
		return Result{}, err
	}

	if opts.RecordHistory {
		added, err := u.journal.Append(quotes)
		if err != nil {
			u.hook.CycleFailed(err)
			return Result{}, err
		}
		res.HistoryAdded = added
		res.HistoryDeduped = len(quotes) - added
	}

	u.hook.CycleSucceeded(res)
	return res, nil
}

func (u *Updater) selectProviders(source string) ([]rates.Provider, error) {
	if source == "" {
		if len(u.providers) == 0 {
			return nil, errors.New("no providers configured")
		}
		return u.providers, nil
	}
	var out []rates.Provider
	for _, p := range u.providers {
		if strings.EqualFold(p.Name(), source) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unknown provider %q", source)
	}
	return out, nil
}

// NeedsRefresh reports whether the snapshot is stale: no refresh yet, or the
// last one is older than the TTL.
func (u *Updater) NeedsRefresh(snap snapshot.Snapshot, now time.Time) bool {
	if snap.LastRefresh == nil {
		return true
	}
	return now.Sub(*snap.LastRefresh) > u.ttl
}

// NeedsDailyRefresh compares UTC calendar dates only: a refresh at 23:59
// followed by a check at 00:01 still reports true. This mirrors documented
// behavior; it is not an elapsed-time heuristic.
func (u *Updater) NeedsDailyRefresh(snap snapshot.Snapshot, now time.Time) bool {
	if snap.LastRefresh == nil {
		return true
	}
	ly, lm, ld := snap.LastRefresh.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly != ny || lm != nm || ld != nd
}

// Rate returns the cached entry for a directional pair, refreshing first when
// the snapshot is stale. A failed refresh still serves the last good value so
// the caller can judge staleness by UpdatedAt.
func (u *Updater) Rate(ctx context.Context, pairID string, opts Options) (snapshot.Entry, error) {
	snap, err := u.store.Load()
	if err != nil {
		return snapshot.Entry{}, err
	}
	if u.NeedsRefresh(snap, time.Now().UTC()) {
		if _, err := u.RefreshNow(ctx, opts); err != nil {
			u.log.Warn("refresh failed, serving stale snapshot", "err", err)
		} else if snap, err = u.store.Load(); err != nil {
			return snapshot.Entry{}, err
		}
	}
	entry, ok := snap.Pairs[pairID]
	if !ok {
		return snapshot.Entry{}, &PairNotFoundError{PairID: pairID}
	}
	return entry, nil
}

// List returns snapshot entries for display tooling.
func (u *Updater) List(f snapshot.Filter) ([]snapshot.ListedPair, error) {
	snap, err := u.store.Load()
	if err != nil {
		return nil, err
	}
	return snapshot.List(snap, f), nil
}

// Snapshot exposes the current snapshot to read-only callers.
func (u *Updater) Snapshot() (snapshot.Snapshot, error) {
	return u.store.Load()
}

// logHook is the default audit hook: cycle boundaries go to the logger.
type logHook struct {
	log *slog.Logger
}

func (h *logHook) CycleStarted(scope rates.Scope, mode snapshot.Mode) {
	h.log.Info("starting rates update", "base", scope.Base, "mode", string(mode))
}

func (h *logHook) CycleSucceeded(res Result) {
	h.log.Info("rates update done",
		"updated", res.PairsUpdated,
		"skipped", res.PairsSkipped,
		"history_added", res.HistoryAdded,
		"warnings", len(res.Warnings),
		"last_refresh", rates.FormatTimestamp(res.StartedAt),
	)
}

func (h *logHook) CycleFailed(err error) {
	h.log.Error("rates update failed", "err", err)
}
