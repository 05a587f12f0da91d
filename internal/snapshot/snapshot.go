// Package snapshot is the fast-path cache of the best-known rate per
// directional currency pair, persisted as a single JSON file.
package snapshot

import (
	"sort"
	"strings"
	"time"

	"valutatrade/internal/currency"
	"valutatrade/internal/rates"
	"valutatrade/internal/storage"
)

// Mode selects the reconciliation policy for a refresh cycle.
type Mode string

const (
	// Merge keeps the freshest value per pair across old and new data.
	Merge Mode = "merge"
	// Strict replaces the whole pair set with the incoming batch.
	Strict Mode = "strict"
)

// Entry is the cached state of one directional pair.
type Entry struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// Snapshot is the whole cache file: at most one entry per pair id.
type Snapshot struct {
	Pairs       map[string]Entry `json:"pairs"`
	LastRefresh *time.Time       `json:"last_refresh"`
}

// Empty returns a snapshot with no pairs and no refresh marker.
func Empty() Snapshot {
	return Snapshot{Pairs: map[string]Entry{}}
}

// FromQuotes builds the incoming pair set of a refresh cycle.
func FromQuotes(quotes []rates.Quote) map[string]Entry {
	pairs := make(map[string]Entry, len(quotes))
	for _, q := range quotes {
		pairs[q.PairID()] = Entry{Rate: q.Rate, UpdatedAt: q.Timestamp, Source: q.Source}
	}
	return pairs
}

// Reconcile merges the incoming pairs into the existing snapshot.
//
// Merge mode overwrites an existing entry only when the incoming UpdatedAt is
// strictly newer or the pair is absent; existing pairs missing from the batch
// are retained. Strict mode drops everything not in the batch. The returned
// skipped count is the number of stale-merge rejections.
func Reconcile(existing Snapshot, incoming map[string]Entry, mode Mode) (snap Snapshot, updated, skipped int) {
	out := Snapshot{Pairs: make(map[string]Entry, len(incoming)), LastRefresh: existing.LastRefresh}

	if mode == Strict {
		for k, e := range incoming {
			out.Pairs[k] = e
		}
		return out, len(incoming), 0
	}

	for k, e := range existing.Pairs {
		out.Pairs[k] = e
	}
	for k, e := range incoming {
		cur, ok := out.Pairs[k]
		if ok && !e.UpdatedAt.After(cur.UpdatedAt) {
			skipped++
			continue
		}
		out.Pairs[k] = e
		updated++
	}
	return out, updated, skipped
}

// Store persists snapshots at a fixed path.
type Store struct {
	Path string
}

func NewStore(path string) *Store { return &Store{Path: path} }

// Load reads the snapshot file; a missing file yields an empty snapshot.
func (s *Store) Load() (Snapshot, error) {
	var snap Snapshot
	if err := storage.ReadJSON(s.Path, &snap); err != nil {
		if storage.IsNotExist(err) {
			return Empty(), nil
		}
		return Empty(), err
	}
	if snap.Pairs == nil {
		snap.Pairs = map[string]Entry{}
	}
	return snap, nil
}

// Persist writes the whole snapshot atomically.
func (s *Store) Persist(snap Snapshot) error {
	return storage.WriteJSONAtomic(s.Path, snap)
}

// Filter selects pair ids for display: empty matches everything, "fiat" and
// "crypto" match by the kind of the pair's from-currency, a currency code
// matches either side of the pair, and a pair id matches exactly.
type Filter struct {
	Term string
}

// Match reports whether the pair id passes the filter.
func (f Filter) Match(pairID string) bool {
	term := strings.ToUpper(strings.TrimSpace(f.Term))
	if term == "" {
		return true
	}
	if term == pairID {
		return true
	}
	from, to, ok := strings.Cut(pairID, "_")
	if !ok {
		return false
	}
	switch term {
	case "FIAT", "CRYPTO":
		c, err := currency.Get(from)
		return err == nil && strings.EqualFold(string(c.Kind), term)
	}
	return from == term || to == term
}

// ListedPair is one row of the show-rates output.
type ListedPair struct {
	PairID string
	Entry
}

// List returns the snapshot entries passing the filter, sorted by pair id.
func List(snap Snapshot, f Filter) []ListedPair {
	out := make([]ListedPair, 0, len(snap.Pairs))
	for id, e := range snap.Pairs {
		if f.Match(id) {
			out = append(out, ListedPair{PairID: id, Entry: e})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PairID < out[j].PairID })
	return out
}
