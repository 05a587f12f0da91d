package coingecko_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"valutatrade/internal/httpx"
	"valutatrade/internal/rates"
	"valutatrade/internal/rates/coingecko"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *coingecko.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return coingecko.New(coingecko.Config{URL: srv.URL}, httpx.New(0))
}

func TestFetch_DefaultSymbols(t *testing.T) {
	t.Parallel()

	var gotQuery string
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"bitcoin":{"usd":67250.12},"ethereum":{"usd":3120.4},"solana":{"usd":145.8}}`))
	})

	quotes, err := p.Fetch(t.Context(), rates.Scope{})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	require.Equal(t, "ids=bitcoin,ethereum,solana&vs_currencies=usd", gotQuery)

	byPair := map[string]rates.RawQuote{}
	for _, q := range quotes {
		byPair[q.PairID()] = q
	}
	require.Equal(t, 67250.12, byPair["BTC_USD"].Rate)
	require.Equal(t, 3120.4, byPair["ETH_USD"].Rate)
	require.Equal(t, 145.8, byPair["SOL_USD"].Rate)
	require.Equal(t, "bitcoin", byPair["BTC_USD"].Meta.RawID)
	require.Equal(t, coingecko.Source, byPair["BTC_USD"].Source)
}

func TestFetch_SkipsSymbolsMissingFromPayload(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":67250.12}}`))
	})

	quotes, err := p.Fetch(t.Context(), rates.Scope{CryptoSymbols: []string{"BTC", "ETH"}})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "BTC_USD", quotes[0].PairID())
}

func TestFetch_UnknownTickerNotRequested(t *testing.T) {
	t.Parallel()

	var gotQuery string
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"bitcoin":{"usd":67250.12}}`))
	})

	quotes, err := p.Fetch(t.Context(), rates.Scope{CryptoSymbols: []string{"BTC", "DOGE"}})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "ids=bitcoin&vs_currencies=usd", gotQuery)
}

func TestFetch_HTTPError(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := p.Fetch(t.Context(), rates.Scope{})
	var perr *rates.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, coingecko.Source, perr.Provider)
	require.Contains(t, perr.Error(), "429")
}

func TestFetch_BadJSON(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":`))
	})

	_, err := p.Fetch(t.Context(), rates.Scope{})
	var perr *rates.ProviderError
	require.ErrorAs(t, err, &perr)
}
