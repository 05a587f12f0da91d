package rates

import (
	"fmt"
	"strings"
)

// ProviderError reports a fetch-level failure of one provider: network error,
// non-2xx status, or an unparseable payload. Individual missing symbols do
// not produce it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InvalidRateError reports a malformed rate coming out of a provider: zero,
// negative, non-finite, or a currency outside the supported registry.
type InvalidRateError struct {
	From   string
	To     string
	Rate   float64
	Reason string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid rate %s_%s=%v: %s", e.From, e.To, e.Rate, e.Reason)
}

// AllProvidersFailedError means every provider configured for a refresh cycle
// failed; the cycle produced no snapshot mutation.
type AllProvidersFailedError struct {
	Errs []error
}

func (e *AllProvidersFailedError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "all providers failed: " + strings.Join(msgs, "; ")
}
