// Package mock provides test doubles for the fare harvester.
// These fakes are designed for integration testing where we need
// configurable behavior (delays, failures, per-route answers).
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flight-fares/fare-harvester/internal/domain"
)

// Fetcher is a configurable fake implementation of domain.Fetcher.
// Routes without a configured answer return an empty outcome.
type Fetcher struct {
	name    string
	delay   time.Duration
	fail    error
	perDay  map[string]int
	answers map[string]func(req domain.FetchRequest) domain.FetchOutcome

	mu    sync.Mutex
	calls map[string]int
}

// NewFetcher creates a fake fetcher with the given protocol name.
// The fetcher is configured using the builder pattern methods.
func NewFetcher(name string) *Fetcher {
	return &Fetcher{
		name:    name,
		perDay:  map[string]int{},
		answers: map[string]func(domain.FetchRequest) domain.FetchOutcome{},
		calls:   map[string]int{},
	}
}

// routeKey is the directed route "AAA-BBB".
func routeKey(origin, destination string) string {
	return origin + "-" + destination
}

// WithRecords answers every request of the directed route with n sample records.
func (f *Fetcher) WithRecords(origin, destination string, n int) *Fetcher {
	f.perDay[routeKey(origin, destination)] = n
	return f
}

// WithAnswer answers every request of the directed route with fn.
func (f *Fetcher) WithAnswer(origin, destination string, fn func(req domain.FetchRequest) domain.FetchOutcome) *Fetcher {
	f.answers[routeKey(origin, destination)] = fn
	return f
}

// WithTransportError makes every request fail with a transport error.
func (f *Fetcher) WithTransportError(err error) *Fetcher {
	f.fail = err
	return f
}

// WithDelay configures the fetcher to wait the given duration before answering.
// This is useful for testing cancellation.
func (f *Fetcher) WithDelay(d time.Duration) *Fetcher {
	f.delay = d
	return f
}

// Name returns the protocol name.
func (f *Fetcher) Name() string {
	return f.name
}

// Fetch implements domain.Fetcher.Fetch.
// It respects context cancellation and applies the configured delay.
func (f *Fetcher) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchOutcome {
	key := routeKey(req.Origin, req.Destination)
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Failed(domain.NewTransportError(f.name, ctx.Err()))
		case <-time.After(f.delay):
		}
	}
	if ctx.Err() != nil {
		return domain.Failed(domain.NewTransportError(f.name, ctx.Err()))
	}

	if f.fail != nil {
		return domain.Failed(domain.NewTransportError(f.name, f.fail))
	}
	if fn, ok := f.answers[key]; ok {
		return fn(req)
	}
	return domain.Fetched(SampleRecords(req, f.perDay[key]), 0)
}

// Calls returns the number of fetches of the directed route.
func (f *Fetcher) Calls(origin, destination string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[routeKey(origin, destination)]
}

// TotalCalls returns the number of fetches across all routes.
func (f *Fetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Ensure Fetcher implements domain.Fetcher at compile time.
var _ domain.Fetcher = (*Fetcher)(nil)

// cityNames maps the city codes used in tests to their reference names.
var cityNames = map[string]string{
	"BJS": "北京",
	"SHA": "上海",
	"CAN": "广州",
	"SZX": "深圳",
	"CTU": "成都",
	"CKG": "重庆",
}

// CityName returns the reference name of a test city code, or the code itself.
func CityName(code string) string {
	if name, ok := cityNames[code]; ok {
		return name
	}
	return code
}

var sampleAirlines = []string{"东方航空", "南方航空", "春秋航空"}

var sampleCrafts = []domain.CraftSize{domain.CraftLarge, domain.CraftMedium, domain.CraftSmall}

// SampleRecords returns n valid records for one directed request.
// Departures are spread two hours apart from 07:00 and prices rise by 50.
func SampleRecords(req domain.FetchRequest, n int) []domain.FlightRecord {
	records := make([]domain.FlightRecord, n)
	for i := range records {
		dep := 7 + (2*i)%16
		records[i] = domain.FlightRecord{
			FlightDate: req.FlightDate,
			Weekday:    domain.WeekdayName(req.FlightDate),
			Airline:    sampleAirlines[i%len(sampleAirlines)],
			Craft:      sampleCrafts[i%len(sampleCrafts)],
			DepName:    CityName(req.Origin),
			ArrName:    CityName(req.Destination),
			DepTime:    fmt.Sprintf("%02d:00", dep),
			ArrTime:    fmt.Sprintf("%02d:30", dep+2),
			Price:      600 + 50*i,
			Rate:       0.5 + 0.05*float64(i%8),
		}
	}
	return records
}
