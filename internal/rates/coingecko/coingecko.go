// Package coingecko adapts the CoinGecko simple-price endpoint to the
// uniform rates.Provider shape. Prices come back against a fixed quote
// currency (USD) and are timestamped at fetch time.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"valutatrade/internal/httpx"
	"valutatrade/internal/rates"
)

// Source is the provider identity recorded on every quote.
const Source = "CoinGecko"

// DefaultIDMap maps supported crypto tickers to CoinGecko coin ids.
var DefaultIDMap = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

type Config struct {
	Name string
	URL  string
	// QuoteCurrency is the fixed vs_currency, default USD.
	QuoteCurrency string
	// IDMap overrides DefaultIDMap when set.
	IDMap map[string]string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = Source
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.coingecko.com/api/v3/simple/price"
	}
	if cfg.QuoteCurrency == "" {
		cfg.QuoteCurrency = "USD"
	}
	if cfg.IDMap == nil {
		cfg.IDMap = DefaultIDMap
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch prices the requested crypto symbols against the fixed quote currency
// in a single call. Symbols absent from the payload are skipped silently.
func (p *Provider) Fetch(ctx context.Context, scope rates.Scope) ([]rates.RawQuote, error) {
	symbols := scope.CryptoSymbols
	if len(symbols) == 0 {
		symbols = rates.DefaultCryptoSymbols
	}

	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if id := p.cfg.IDMap[sym]; id != "" {
			ids = append(ids, id)
		}
	}
	vs := strings.ToLower(p.cfg.QuoteCurrency)
	sep := "?"
	if strings.Contains(p.cfg.URL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%sids=%s&vs_currencies=%s", p.cfg.URL, sep, strings.Join(ids, ","), vs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: err}
	}
	t0 := time.Now()
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: err}
	}
	defer resp.Body.Close()
	elapsed := time.Since(t0).Milliseconds()
	etag := resp.Header.Get("ETag")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: fmt.Errorf("GET %s -> %d: %s", url, resp.StatusCode, string(b))}
	}

	var data map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: fmt.Errorf("decode: %w", err)}
	}

	ts := time.Now().UTC().Truncate(time.Second)
	out := make([]rates.RawQuote, 0, len(symbols))
	for _, sym := range symbols {
		id := p.cfg.IDMap[sym]
		if id == "" {
			continue
		}
		info, ok := data[id]
		if !ok {
			continue
		}
		price, ok := info[vs]
		if !ok {
			continue
		}
		out = append(out, rates.RawQuote{
			From:      sym,
			To:        p.cfg.QuoteCurrency,
			Rate:      price,
			Timestamp: ts,
			Source:    Source,
			Meta:      rates.Meta{RawID: id, RequestMs: elapsed, StatusCode: resp.StatusCode, ETag: etag},
		})
	}
	return out, nil
}
