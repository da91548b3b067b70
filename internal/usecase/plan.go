// Package usecase contains the collection logic of the fare harvester.
// It turns a city list into a pair × day matrix and drives the fetchers over
// it on a bounded worker pool.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// RouteCatalog provides the reference skip lists. refdb.DB implements it.
type RouteCatalog interface {
	SkippedRoutes(threshold int) domain.PairSet
}

// PlanConfig is the raw collection request.
type PlanConfig struct {
	Cities []string

	// FirstDate is the first flight date; zero means tomorrow
	FirstDate time.Time

	Days      int
	DayLimit  int
	Threshold int
	Ignore    domain.PairSet

	WithReturn bool

	// FromCity and ToCity slice the origin indexes; ToCity 0 means the end
	FromCity int
	ToCity   int
}

// Job is one directed pair of the matrix: Origin precedes Destination in the city list.
type Job struct {
	Origin      string
	Destination string
}

// Pair returns the unordered pair of the job.
func (j Job) Pair() domain.Pair {
	return domain.NewPair(j.Origin, j.Destination)
}

// Window is a normalized lead-time window.
type Window struct {
	FirstDate time.Time
	Days      int
	Threshold int
}

// Plan is the fully resolved collection matrix. It is built once before any fetch.
type Plan struct {
	Cities      []string
	CollectDate time.Time
	Window
	WithReturn bool
	Skip       domain.PairSet
	Jobs       []Job
}

// Directions returns 2 with return flights, 1 otherwise.
func (p Plan) Directions() int {
	if p.WithReturn {
		return 2
	}
	return 1
}

// UnitsPerJob is the number of (day, direction) fetch units of one job.
func (p Plan) UnitsPerJob() int {
	return p.Days * p.Directions()
}

// Units is the number of (pair, day, direction) fetch units of the plan.
func (p Plan) Units() int {
	return len(p.Jobs) * p.UnitsPerJob()
}

// FlightDate returns the flight date of lead day i.
func (p Plan) FlightDate(i int) time.Time {
	return timeutil.AddDays(p.FirstDate, i)
}

// NormalizeCities upper-cases, trims and de-duplicates the city list.
func NormalizeCities(cities []string) ([]string, error) {
	seen := make(map[string]bool, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !domain.IsAirportCode(c) {
			return nil, fmt.Errorf("%w: %q is not a city code", domain.ErrEmptyCityList, c)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	switch {
	case len(out) == 0:
		return nil, domain.ErrEmptyCityList
	case len(out) < 2:
		return nil, fmt.Errorf("%w: got %v", domain.ErrTooFewCities, out)
	}
	return out, nil
}

// NormalizeWindow applies the lead-time rules: a first date not after today
// moves to tomorrow, shrinking days by the overshoot and forcing the threshold
// to 0; a positive day limit then caps the furthest flight date.
func NormalizeWindow(today, first time.Time, days, dayLimit, threshold int) (Window, error) {
	today = timeutil.Date(today)
	tomorrow := timeutil.AddDays(today, 1)
	if first.IsZero() {
		first = tomorrow
	}
	first = timeutil.Date(first)

	if !today.Before(first) {
		days -= timeutil.DaysBetween(first, today) + 1
		first = tomorrow
		threshold = 0
	}
	if dayLimit > 0 {
		if max := dayLimit - timeutil.DaysBetween(today, first); days > max {
			days = max
		}
	}
	if days <= 0 {
		return Window{}, fmt.Errorf("%w: first flight date %s, %d days", domain.ErrDayRangeEmpty, first.Format(domain.DateLayout), days)
	}
	return Window{FirstDate: first, Days: days, Threshold: threshold}, nil
}

// SkipSet builds the symmetric skip set: the reference list at the threshold
// plus the extra pairs.
func SkipSet(catalog RouteCatalog, threshold int, extra domain.PairSet) domain.PairSet {
	skip := domain.PairSet{}
	skip.Union(catalog.SkippedRoutes(threshold))
	skip.Union(extra)
	return skip
}

// BuildPlan validates the request and enumerates the matrix. City list errors
// come first, then the window, then the skip set. The skip set uses the
// threshold of the normalized window.
func BuildPlan(cfg PlanConfig, catalog RouteCatalog, today time.Time) (Plan, error) {
	cities, err := NormalizeCities(cfg.Cities)
	if err != nil {
		return Plan{}, err
	}

	window, err := NormalizeWindow(today, cfg.FirstDate, cfg.Days, cfg.DayLimit, cfg.Threshold)
	if err != nil {
		return Plan{}, err
	}

	skip := SkipSet(catalog, window.Threshold, cfg.Ignore)

	from, to := cfg.FromCity, cfg.ToCity
	if to <= 0 || to > len(cities) {
		to = len(cities)
	}
	if from < 0 {
		from = 0
	}

	var jobs []Job
	for i := from; i < to; i++ {
		for j := i + 1; j < len(cities); j++ {
			if skip.Has(cities[i], cities[j]) {
				continue
			}
			jobs = append(jobs, Job{Origin: cities[i], Destination: cities[j]})
		}
	}
	if len(jobs) == 0 {
		return Plan{}, fmt.Errorf("%w: %d cities", domain.ErrNoWorkAfterSkip, len(cities))
	}

	return Plan{
		Cities:      cities,
		CollectDate: timeutil.Date(today),
		Window:      window,
		WithReturn:  cfg.WithReturn,
		Skip:        skip,
		Jobs:        jobs,
	}, nil
}
