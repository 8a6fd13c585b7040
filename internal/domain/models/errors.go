package models

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a provider fetch failed. The pipeline
// uses the kind to decide between degraded fallbacks and hard errors.
type FetchErrorKind string

const (
	NetworkFailure    FetchErrorKind = "network_failure"
	MalformedResponse FetchErrorKind = "malformed_response"
	InsufficientData  FetchErrorKind = "insufficient_data"
	OutOfRangeValue   FetchErrorKind = "out_of_range_value"
)

// FetchError wraps a provider failure with its classification.
type FetchError struct {
	Kind     FetchErrorKind
	Provider string
	Symbol   string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a classified provider error.
func NewFetchError(kind FetchErrorKind, provider, symbol string, err error) *FetchError {
	return &FetchError{Kind: kind, Provider: provider, Symbol: symbol, Err: err}
}

// KindOf extracts the classification from err, or empty if it is not a
// FetchError.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// ErrNoData marks a symbol for which the provider answered but carried
// nothing usable. Distinct from transient network failures.
var ErrNoData = errors.New("no usable data for symbol")
