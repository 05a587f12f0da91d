// Package rates defines the uniform quote shapes shared by all provider
// adapters and the normalization step that turns a one-directional provider
// observation into both directions of a currency pair.
package rates

import (
	"context"
	"fmt"
	"time"
)

// Meta is the opaque diagnostic bag attached to every quote. It is stored
// verbatim in the history journal and never interpreted by core logic.
type Meta struct {
	RawID      string `json:"raw_id"`
	RequestMs  int64  `json:"request_ms"`
	StatusCode int    `json:"status_code"`
	ETag       string `json:"etag,omitempty"`
}

// RawQuote is a single provider observation before normalization:
// Rate units of To per 1 From.
type RawQuote struct {
	From      string
	To        string
	Rate      float64
	Timestamp time.Time
	Source    string
	Meta      Meta
}

// PairID returns the directional pair key, e.g. "USD_EUR".
func (r RawQuote) PairID() string { return r.From + "_" + r.To }

// Scope narrows what a refresh cycle asks the providers for. Each adapter
// reads only the fields that concern it.
type Scope struct {
	// Base is the fiat base currency, e.g. "USD".
	Base string
	// FiatTargets lists the fiat codes to keep from the rate endpoint.
	// Ignored when AllFiat is set.
	FiatTargets []string
	// AllFiat keeps every code the fiat endpoint returns.
	AllFiat bool
	// CryptoSymbols lists the crypto tickers to price, e.g. BTC, ETH, SOL.
	CryptoSymbols []string
}

// DefaultFiatTargets is the fiat set fetched when no explicit scope is given.
var DefaultFiatTargets = []string{"EUR", "GBP", "RUB"}

// DefaultCryptoSymbols is the crypto set fetched when no explicit scope is given.
var DefaultCryptoSymbols = []string{"BTC", "ETH", "SOL"}

// DefaultScope returns the standard refresh scope against the given base.
func DefaultScope(base string) Scope {
	return Scope{
		Base:          base,
		FiatTargets:   append([]string(nil), DefaultFiatTargets...),
		CryptoSymbols: append([]string(nil), DefaultCryptoSymbols...),
	}
}

// Provider is implemented by every external rate source adapter.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, scope Scope) ([]RawQuote, error)
}

// Quote is a normalized, directional rate observation.
type Quote struct {
	ID        string
	From      string
	To        string
	Rate      float64
	Timestamp time.Time
	Source    string
	Meta      Meta
}

// PairID returns the directional pair key, e.g. "EUR_USD".
func (q Quote) PairID() string { return q.From + "_" + q.To }

// FormatTimestamp renders a quote timestamp as second-precision UTC ISO-8601
// with an explicit Z marker. All persisted timestamps use this form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// QuoteID derives the journal identity of a quote: two observations of the
// same pair within the same second are the same entity.
func QuoteID(from, to string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s", from, to, FormatTimestamp(ts))
}
