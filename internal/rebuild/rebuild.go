// Package rebuild aggregates flight records into the six analytic views and
// materializes them as workbooks.
package rebuild

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// View names.
const (
	ViewAirline = "airline"
	ViewBuyday  = "buyday"
	ViewCity    = "city"
	ViewFlyday  = "flyday"
	ViewTime    = "time"
	ViewType    = "type"
)

// AllViews lists every view in materialization order.
var AllViews = []string{ViewAirline, ViewBuyday, ViewCity, ViewFlyday, ViewTime, ViewType}

// Reference is the reference data the views need.
type Reference interface {
	CityOfName(display string) string
	FullFare(origin, arrival string) int
	Places(place string) domain.PlaceFactors
	RouteFactor(a, b string) float64
	RouteClass(a, b string) string
}

// observation is one record with its derived keys.
type observation struct {
	route   route
	collect time.Time
	lead    int
	hour    int
	rec     domain.FlightRecord
}

// view is the aggregation state of one analytic view.
type view interface {
	add(o observation)
	materialize() *sink.Workbook
}

func newView(name string, ref Reference) (view, error) {
	switch name {
	case ViewAirline:
		return newAirlineView(), nil
	case ViewBuyday:
		return newBuydayView(), nil
	case ViewCity:
		return newCityView(ref), nil
	case ViewFlyday:
		return newFlydayView(), nil
	case ViewTime:
		return newTimeView(), nil
	case ViewType:
		return newTypeView(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownView, name)
	}
}

// Rebuilder holds the aggregation state of the selected views for one
// rebuild session. Appends grow the state monotonically; Clear resets a view.
type Rebuilder struct {
	ref   Reference
	log   *logger.Logger
	names []string

	mu      sync.RWMutex
	views   map[string]view
	records int

	extracted []string
}

// New creates a Rebuilder for the named views; no names selects all of them.
func New(ref Reference, log *logger.Logger, names ...string) (*Rebuilder, error) {
	if log == nil {
		log = logger.Nop()
	}
	if len(names) == 0 {
		names = AllViews
	}
	r := &Rebuilder{ref: ref, log: log, views: make(map[string]view, len(names))}
	for _, name := range names {
		if _, dup := r.views[name]; dup {
			continue
		}
		v, err := newView(name, ref)
		if err != nil {
			return nil, err
		}
		r.views[name] = v
		r.names = append(r.names, name)
	}
	return r, nil
}

// Views returns the selected view names.
func (r *Rebuilder) Views() []string {
	return r.names
}

// Records returns the number of records appended since creation.
func (r *Rebuilder) Records() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records
}

// Append feeds the records of one collection date into every view. Records
// with a flight date before the collection date are skipped.
func (r *Rebuilder) Append(collectDate time.Time, records []domain.FlightRecord) {
	collectDate = timeutil.Date(collectDate)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		lead := timeutil.DaysBetween(collectDate, rec.FlightDate)
		if lead < 0 {
			continue
		}
		o := observation{
			route: route{
				From: r.ref.CityOfName(rec.DepName),
				To:   r.ref.CityOfName(rec.ArrName),
			},
			collect: collectDate,
			lead:    lead,
			hour:    rec.DepHour(),
			rec:     rec,
		}
		for _, v := range r.views {
			v.add(o)
		}
		r.records++
	}
}

// AppendBatch feeds a collected batch.
func (r *Rebuilder) AppendBatch(b domain.Batch) {
	r.Append(b.CollectDate, b.Records)
}

// Clear resets the state of one view so the next session starts fresh.
func (r *Rebuilder) Clear(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[name]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownView, name)
	}
	v, err := newView(name, r.ref)
	if err != nil {
		return err
	}
	r.views[name] = v
	return nil
}

// Materialize builds the workbook of one view.
func (r *Rebuilder) Materialize(name string) (*sink.Workbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownView, name)
	}
	return v.materialize(), nil
}

// MaterializeAll builds every selected view in parallel.
func (r *Rebuilder) MaterializeAll(ctx context.Context) (map[string]*sink.Workbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*sink.Workbook, len(r.names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range r.names {
		v := r.views[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out[i] = v.materialize()
			r.log.Debug().Str("view", name).Dur("elapsed", time.Since(start)).Msg("View materialized")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	books := make(map[string]*sink.Workbook, len(r.names))
	for i, name := range r.names {
		books[name] = out[i]
	}
	return books, nil
}

// Write materializes every view and writes each as <name> under dir.
func (r *Rebuilder) Write(ctx context.Context, w *sink.Writer, dir string) ([]string, error) {
	books, err := r.MaterializeAll(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range r.names {
		written, err := w.Write(filepath.Join(dir, name), books[name])
		if err != nil {
			return paths, fmt.Errorf("write view %s: %w", name, err)
		}
		paths = append(paths, written...)
	}
	return paths, nil
}
