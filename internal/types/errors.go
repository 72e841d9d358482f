package types

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies a data-provider failure.
type FetchErrorKind string

const (
	FetchRateLimited  FetchErrorKind = "RateLimited"
	FetchNotFound     FetchErrorKind = "NotFound"
	FetchNetworkError FetchErrorKind = "NetworkError"
	FetchAuthError    FetchErrorKind = "AuthError"
)

// FetchError is a typed failure from an external data fetch. Per-ticker
// fetch errors are recoverable: the orchestrator records them and moves on.
type FetchError struct {
	Kind   FetchErrorKind
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Symbol, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError wrapping err.
func NewFetchError(kind FetchErrorKind, symbol string, err error) *FetchError {
	return &FetchError{Kind: kind, Symbol: symbol, Err: err}
}

// FetchKind extracts the FetchErrorKind from err, or NetworkError when err
// is not a FetchError.
func FetchKind(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FetchNetworkError
}

// Fatal run-wide conditions. These abort the whole batch rather than a
// single ticker.
var (
	// ErrCredentials signals missing or rejected provider credentials.
	ErrCredentials = errors.New("provider credentials missing or invalid")

	// ErrProviderUnavailable signals a total provider outage, as opposed to
	// a transient per-call network error.
	ErrProviderUnavailable = errors.New("data provider unavailable")
)

// IsFatal reports whether err should abort the entire run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCredentials) || errors.Is(err, ErrProviderUnavailable)
}
