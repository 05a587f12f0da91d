// Package currency holds the registry of currencies the simulator can trade.
// In a real deployment this would be loaded from config or a reference feed.
package currency

import (
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes fiat currencies from crypto assets.
type Kind string

const (
	Fiat   Kind = "fiat"
	Crypto Kind = "crypto"
)

// Currency is one entry of the supported-currency registry.
type Currency struct {
	Code string
	Name string
	Kind Kind

	// Fiat only.
	IssuingCountry string

	// Crypto only.
	Algorithm string
	MarketCap float64
}

// DisplayInfo renders the registry line shown by the `currencies` command.
func (c Currency) DisplayInfo() string {
	if c.Kind == Crypto {
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)", c.Code, c.Name, c.Algorithm, c.MarketCap)
	}
	return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
}

// NotFoundError reports an unsupported currency code.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

var registry = map[string]Currency{
	"USD": {Code: "USD", Name: "US Dollar", Kind: Fiat, IssuingCountry: "United States"},
	"EUR": {Code: "EUR", Name: "Euro", Kind: Fiat, IssuingCountry: "Eurozone"},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Kind: Fiat, IssuingCountry: "United Kingdom"},
	"RUB": {Code: "RUB", Name: "Russian Ruble", Kind: Fiat, IssuingCountry: "Russia"},
	"BTC": {Code: "BTC", Name: "Bitcoin", Kind: Crypto, Algorithm: "SHA-256", MarketCap: 1.12e12},
	"ETH": {Code: "ETH", Name: "Ethereum", Kind: Crypto, Algorithm: "Ethash", MarketCap: 4.5e11},
	"SOL": {Code: "SOL", Name: "Solana", Kind: Crypto, Algorithm: "PoH", MarketCap: 8.0e10},
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Get looks up a currency by code.
func Get(code string) (Currency, error) {
	c, ok := registry[Normalize(code)]
	if !ok {
		return Currency{}, &NotFoundError{Code: Normalize(code)}
	}
	return c, nil
}

// Supported reports whether the code is in the registry.
func Supported(code string) bool {
	_, ok := registry[Normalize(code)]
	return ok
}

// List returns all registered currencies sorted by code.
func List() []Currency {
	out := make([]Currency, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
