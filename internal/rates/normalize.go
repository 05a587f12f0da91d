package rates

import (
	"math"
	"time"

	"valutatrade/internal/currency"
)

// Expand turns one raw observation into both directions of the pair. The
// reverse quote carries the reciprocal rate and shares the timestamp and
// source of the forward one.
func Expand(raw RawQuote) (forward Quote, reverse Quote, err error) {
	if raw.Rate <= 0 || math.IsNaN(raw.Rate) || math.IsInf(raw.Rate, 0) {
		return Quote{}, Quote{}, &InvalidRateError{From: raw.From, To: raw.To, Rate: raw.Rate, Reason: "rate must be a positive finite number"}
	}
	if !currency.Supported(raw.From) {
		return Quote{}, Quote{}, &InvalidRateError{From: raw.From, To: raw.To, Rate: raw.Rate, Reason: "unsupported currency " + raw.From}
	}
	if !currency.Supported(raw.To) {
		return Quote{}, Quote{}, &InvalidRateError{From: raw.From, To: raw.To, Rate: raw.Rate, Reason: "unsupported currency " + raw.To}
	}

	ts := raw.Timestamp.UTC().Truncate(time.Second)
	forward = Quote{
		ID:        QuoteID(raw.From, raw.To, ts),
		From:      raw.From,
		To:        raw.To,
		Rate:      raw.Rate,
		Timestamp: ts,
		Source:    raw.Source,
		Meta:      raw.Meta,
	}
	reverse = Quote{
		ID:        QuoteID(raw.To, raw.From, ts),
		From:      raw.To,
		To:        raw.From,
		Rate:      1 / raw.Rate,
		Timestamp: ts,
		Source:    raw.Source,
		Meta:      raw.Meta,
	}
	return forward, reverse, nil
}
