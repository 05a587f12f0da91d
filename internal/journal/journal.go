// Package journal is the append-only audit log of every fetched quote,
// deduplicated by quote identity and persisted as a JSON array. Appends
// rewrite the whole file atomically; an interrupted cycle leaves the previous
// journal intact.
package journal

import (
	"time"

	"valutatrade/internal/rates"
	"valutatrade/internal/storage"
)

// Record is one journal row. Field names match the on-disk format.
type Record struct {
	ID           string     `json:"id"`
	FromCurrency string     `json:"from_currency"`
	ToCurrency   string     `json:"to_currency"`
	Rate         float64    `json:"rate"`
	Timestamp    time.Time  `json:"timestamp"`
	Source       string     `json:"source"`
	Meta         rates.Meta `json:"meta"`
}

// Journal reads and appends the history file.
type Journal struct {
	Path string
}

func New(path string) *Journal { return &Journal{Path: path} }

// Read returns all journal records in append order. A missing file is an
// empty journal.
func (j *Journal) Read() ([]Record, error) {
	var recs []Record
	if err := storage.ReadJSON(j.Path, &recs); err != nil {
		if storage.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}

// Append adds the quotes whose ids are not yet journaled and reports how many
// were added. Duplicates are skipped silently. Nothing is written when every
// quote is a duplicate.
func (j *Journal) Append(quotes []rates.Quote) (int, error) {
	current, err := j.Read()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(current))
	for _, r := range current {
		seen[r.ID] = struct{}{}
	}

	added := 0
	for _, q := range quotes {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		current = append(current, Record{
			ID:           q.ID,
			FromCurrency: q.From,
			ToCurrency:   q.To,
			Rate:         q.Rate,
			Timestamp:    q.Timestamp,
			Source:       q.Source,
			Meta:         q.Meta,
		})
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := storage.WriteJSONAtomic(j.Path, current); err != nil {
		return 0, err
	}
	return added, nil
}

// Clear truncates the journal to empty and reports how many records were
// removed. This is an explicit operator action, never called by refresh
// logic.
func (j *Journal) Clear() (int, error) {
	current, err := j.Read()
	if err != nil {
		return 0, err
	}
	if err := storage.WriteJSONAtomic(j.Path, []Record{}); err != nil {
		return 0, err
	}
	return len(current), nil
}
