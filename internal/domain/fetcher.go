package domain

//go:generate mockgen -source=fetcher.go,sink.go -destination=mock_fetcher.go -package=domain

import (
	"context"
	"time"
)

// OutcomeKind tags the result of a single fetch attempt.
type OutcomeKind int

// Fetch outcome tags.
const (
	// OutcomeOK means at least one record was extracted
	OutcomeOK OutcomeKind = iota

	// OutcomeEmpty means the endpoint answered but no record survived filtering
	OutcomeEmpty

	// OutcomeTransportError means the request failed or timed out
	OutcomeTransportError

	// OutcomeParseError means the payload could not be decoded
	OutcomeParseError
)

// String returns the outcome tag name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// FetchRequest identifies one directed fetch.
type FetchRequest struct {
	FlightDate  time.Time
	Origin      string
	Destination string

	// Proxy is a proxy URL, or empty for a direct connection
	Proxy string

	// UserAgent is sent verbatim as the User-Agent header
	UserAgent string
}

// FetchOutcome is the tagged result of one fetch attempt.
type FetchOutcome struct {
	Kind    OutcomeKind
	Records []FlightRecord

	// Warnings counts itineraries that failed to parse and were skipped
	Warnings int

	// Err is set for transport and parse errors
	Err error
}

// Fetched builds an OK or Empty outcome depending on the record count.
func Fetched(records []FlightRecord, warnings int) FetchOutcome {
	if len(records) == 0 {
		return FetchOutcome{Kind: OutcomeEmpty, Warnings: warnings}
	}
	return FetchOutcome{Kind: OutcomeOK, Records: records, Warnings: warnings}
}

// Failed builds an outcome from a fetch error.
func Failed(err *FetchError) FetchOutcome {
	return FetchOutcome{Kind: err.Kind, Err: err}
}

// Fetcher fetches and parses one directed itinerary search.
// Implementations never return flow-control errors: every failure is an outcome tag.
type Fetcher interface {
	// Name returns the protocol name of the fetcher.
	Name() string

	// Fetch performs one request and returns its tagged outcome.
	Fetch(ctx context.Context, req FetchRequest) FetchOutcome
}

// ProxySource hands out short-lived HTTP proxies.
type ProxySource interface {
	// Next returns a proxy URL, or false when the fetch should go direct.
	Next(ctx context.Context) (string, bool)
}
