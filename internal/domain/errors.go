package domain

import (
	"errors"
	"fmt"
)

// Configuration errors. These are fatal and map to process exit codes.
var (
	// ErrEmptyCityList indicates the city list is empty or contains invalid codes
	ErrEmptyCityList = errors.New("empty or invalid city list")

	// ErrTooFewCities indicates fewer than two distinct cities were given
	ErrTooFewCities = errors.New("at least two cities are required")

	// ErrDayRangeEmpty indicates the lead-time window is empty after normalization
	ErrDayRangeEmpty = errors.New("lead-time window is empty")

	// ErrNoWorkAfterSkip indicates every pair of the matrix is skipped
	ErrNoWorkAfterSkip = errors.New("no pairs left to collect after skipping")

	// ErrInvalidConfig indicates any other invalid configuration value
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Processing errors.
var (
	// ErrHolidayTableIncomplete indicates a year has no Spring Festival entry
	ErrHolidayTableIncomplete = errors.New("holiday table has no spring festival entry")

	// ErrInvalidRecord indicates a flight record violates its invariants
	ErrInvalidRecord = errors.New("invalid flight record")

	// ErrUnknownView indicates an analytic view name that the rebuilder does not know
	ErrUnknownView = errors.New("unknown analytic view")

	// ErrNoProxy indicates the proxy source had nothing to hand out
	ErrNoProxy = errors.New("no proxy available")
)

// Exit codes reported by the command-line entrypoints.
const (
	ExitOK            = 0
	ExitEmptyCityList = 1
	ExitTooFewCities  = 2
	ExitDayRangeEmpty = 3
	ExitNoWork        = 4
	ExitFailure       = 5
)

// ExitCode maps an error returned by a run to its process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrEmptyCityList):
		return ExitEmptyCityList
	case errors.Is(err, ErrTooFewCities):
		return ExitTooFewCities
	case errors.Is(err, ErrDayRangeEmpty):
		return ExitDayRangeEmpty
	case errors.Is(err, ErrNoWorkAfterSkip):
		return ExitNoWork
	default:
		return ExitFailure
	}
}

// IsConfigError reports whether err is one of the fatal configuration errors.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrEmptyCityList) ||
		errors.Is(err, ErrTooFewCities) ||
		errors.Is(err, ErrDayRangeEmpty) ||
		errors.Is(err, ErrNoWorkAfterSkip) ||
		errors.Is(err, ErrInvalidConfig)
}

// FetchError describes a failed fetch attempt against an itinerary endpoint.
type FetchError struct {
	// Protocol is the fetcher name ("products" or "batch")
	Protocol string

	// Kind is the outcome tag of the failed attempt
	Kind OutcomeKind

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Protocol, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network-level failure.
func NewTransportError(protocol string, err error) *FetchError {
	return &FetchError{Protocol: protocol, Kind: OutcomeTransportError, Err: err}
}

// NewParseError wraps a payload decoding failure.
func NewParseError(protocol string, err error) *FetchError {
	return &FetchError{Protocol: protocol, Kind: OutcomeParseError, Err: err}
}
