package parcel

import "fmt"

// ProviderError reports a provider operation that could not complete.
type ProviderError struct {
	Provider string
	County   string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("parcel: %s %s (%s): %v", e.Provider, e.Op, e.County, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(provider, county, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, County: county, Op: op, Err: err}
}
