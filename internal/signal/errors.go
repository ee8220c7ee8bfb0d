package signal

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable is a failed or timed out market data call.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	// ErrInsufficientHistory means the provider returned fewer than 30 closes.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrNoDataAvailable means live data, cache and fallback table all came up empty.
	ErrNoDataAvailable = errors.New("no data available")
)

// NoDataError is returned by Resolve when a ticker cannot be answered at all.
// It matches ErrNoDataAvailable and unwraps to the last provider failure.
type NoDataError struct {
	Ticker string
	Cause  error
}

func (e *NoDataError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("no data available for %s", e.Ticker)
	}
	return fmt.Sprintf("no data available for %s: %v", e.Ticker, e.Cause)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoDataAvailable }

func (e *NoDataError) Unwrap() error { return e.Cause }
