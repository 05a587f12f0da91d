package journal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"valutatrade/internal/journal"
	"valutatrade/internal/rates"
)

func quoteAt(from, to string, rate float64, ts time.Time) rates.Quote {
	return rates.Quote{
		ID:        rates.QuoteID(from, to, ts),
		From:      from,
		To:        to,
		Rate:      rate,
		Timestamp: ts.UTC().Truncate(time.Second),
		Source:    "ExchangeRate-API",
		Meta:      rates.Meta{StatusCode: 200, RequestMs: 42},
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	j := journal.New(filepath.Join(t.TempDir(), "exchange_rates.json"))
	recs, err := j.Read()
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestAppend_PersistsRecordsInOrder(t *testing.T) {
	t.Parallel()

	j := journal.New(filepath.Join(t.TempDir(), "exchange_rates.json"))
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	added, err := j.Append([]rates.Quote{
		quoteAt("USD", "EUR", 0.92, ts),
		quoteAt("EUR", "USD", 1/0.92, ts),
	})
	require.NoError(t, err)
	require.Equal(t, 2, added)

	recs, err := j.Read()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "USD_EUR_2025-03-14T09:26:53Z", recs[0].ID)
	require.Equal(t, "USD", recs[0].FromCurrency)
	require.Equal(t, "EUR", recs[0].ToCurrency)
	require.Equal(t, 0.92, recs[0].Rate)
	require.Equal(t, "ExchangeRate-API", recs[0].Source)
	require.Equal(t, int64(42), recs[0].Meta.RequestMs)
	require.Equal(t, "EUR_USD_2025-03-14T09:26:53Z", recs[1].ID)
}

func TestAppend_DeduplicatesByID(t *testing.T) {
	t.Parallel()

	j := journal.New(filepath.Join(t.TempDir(), "exchange_rates.json"))
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	batch := []rates.Quote{quoteAt("USD", "EUR", 0.92, ts)}

	added, err := j.Append(batch)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	// Same quote again: skipped, file untouched.
	added, err = j.Append(batch)
	require.NoError(t, err)
	require.Equal(t, 0, added)

	// A new observation one second later is a distinct entity.
	added, err = j.Append([]rates.Quote{quoteAt("USD", "EUR", 0.93, ts.Add(time.Second))})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	recs, err := j.Read()
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestAppend_AllDuplicatesLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exchange_rates.json")
	j := journal.New(path)
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	_, err := j.Append([]rates.Quote{quoteAt("USD", "EUR", 0.92, ts)})
	require.NoError(t, err)
	before, err := os.Stat(path)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	added, err := j.Append([]rates.Quote{quoteAt("USD", "EUR", 0.92, ts)})
	require.NoError(t, err)
	require.Equal(t, 0, added)

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestClear(t *testing.T) {
	t.Parallel()

	j := journal.New(filepath.Join(t.TempDir(), "exchange_rates.json"))
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	_, err := j.Append([]rates.Quote{
		quoteAt("USD", "EUR", 0.92, ts),
		quoteAt("BTC", "USD", 67250.12, ts),
	})
	require.NoError(t, err)

	removed, err := j.Clear()
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	recs, err := j.Read()
	require.NoError(t, err)
	require.Empty(t, recs)

	// Clearing an already-empty journal removes nothing.
	removed, err = j.Clear()
	require.NoError(t, err)
	require.Equal(t, 0, removed)
}
