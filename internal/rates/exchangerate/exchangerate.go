// Package exchangerate adapts the ExchangeRate-API fiat rate endpoint to the
// uniform rates.Provider shape. One Fetch issues a single request for the
// base currency and returns one raw quote per requested target.
package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"valutatrade/internal/httpx"
	"valutatrade/internal/rates"
)

// Source is the provider identity recorded on every quote.
const Source = "ExchangeRate-API"

type Config struct {
	Name string
	// URL, when set, is used verbatim instead of the key-based endpoint.
	URL    string
	APIKey string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = Source
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

type apiResponse struct {
	Result            string             `json:"result"`
	BaseCode          string             `json:"base_code"`
	TimeLastUpdateUTC string             `json:"time_last_update_utc"`
	ConversionRates   map[string]float64 `json:"conversion_rates"`
}

// Fetch calls the rate endpoint once and returns one raw quote per target
// currency relative to scope.Base. Targets missing from the payload are
// skipped; only fetch-level failures produce an error.
func (p *Provider) Fetch(ctx context.Context, scope rates.Scope) ([]rates.RawQuote, error) {
	base := scope.Base
	if base == "" {
		base = "USD"
	}
	url, err := p.endpoint(base)
	if err != nil {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: err}
	}

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

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: fmt.Errorf("decode: %w", err)}
	}
	if api.Result != "success" {
		return nil, &rates.ProviderError{Provider: p.cfg.Name, Err: fmt.Errorf("non-success result %q", api.Result)}
	}
	if api.BaseCode != "" {
		base = api.BaseCode
	}

	ts := parseUpdateTime(api.TimeLastUpdateUTC)
	meta := rates.Meta{RequestMs: elapsed, StatusCode: resp.StatusCode, ETag: etag}

	var targets []string
	if scope.AllFiat {
		targets = make([]string, 0, len(api.ConversionRates))
		for code := range api.ConversionRates {
			targets = append(targets, code)
		}
	} else {
		targets = scope.FiatTargets
		if len(targets) == 0 {
			targets = rates.DefaultFiatTargets
		}
	}

	out := make([]rates.RawQuote, 0, len(targets))
	for _, code := range targets {
		if code == base {
			continue
		}
		rate, ok := api.ConversionRates[code]
		if !ok {
			continue
		}
		out = append(out, rates.RawQuote{
			From:      base,
			To:        code,
			Rate:      rate,
			Timestamp: ts,
			Source:    Source,
			Meta:      meta,
		})
	}
	return out, nil
}

func (p *Provider) endpoint(base string) (string, error) {
	if p.cfg.URL != "" {
		return p.cfg.URL, nil
	}
	if p.cfg.APIKey == "" {
		return "", errors.New("no API key and no endpoint URL configured")
	}
	return fmt.Sprintf("https://v6.exchangerate-api.com/v6/%s/latest/%s", p.cfg.APIKey, base), nil
}

// parseUpdateTime parses the endpoint's "Thu, 01 Jan 2025 00:00:01 +0000"
// stamp, falling back to now when it is absent or malformed.
func parseUpdateTime(s string) time.Time {
	if s != "" {
		if t, err := time.Parse("Mon, 02 Jan 2006 15:04:05 -0700", s); err == nil {
			return t.UTC().Truncate(time.Second)
		}
	}
	return time.Now().UTC().Truncate(time.Second)
}
