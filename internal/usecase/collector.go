package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/retry"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// Default collector values.
const (
	DefaultConcurrency  = 16
	DefaultRateLimit    = 8.0
	DefaultRateBurst    = 4
	DefaultFetchTimeout = 10 * time.Second
)

// Config contains configuration options for the collector.
type Config struct {
	// Concurrency bounds in-flight fetches and pairs processed at once
	Concurrency int

	// RateLimit is requests per second across all workers; Burst the bucket size
	RateLimit float64
	RateBurst int

	// FetchTimeout is the total timeout of one fetch attempt
	FetchTimeout time.Duration

	// Retry drives the per-day attempt loop
	Retry retry.Config

	// UserAgent picks the User-Agent of each attempt; nil sends none
	UserAgent func() string

	Clock timeutil.Clock
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:  DefaultConcurrency,
		RateLimit:    DefaultRateLimit,
		RateBurst:    DefaultRateBurst,
		FetchTimeout: DefaultFetchTimeout,
		Retry:        retry.FetchConfig,
	}
}

// Summary holds the terminal counters of a run.
type Summary struct {
	Pairs        int           `json:"pairs"`
	FilesWritten int           `json:"files_written"`
	Skipped      int           `json:"skipped"`
	Warnings     int           `json:"warnings"`
	Ignored      []domain.Pair `json:"ignored"`
}

// Status is the live view of a run served to operators.
type Status struct {
	Progress Snapshot `json:"progress"`
	Summary
}

// Collector drives the pair × day matrix over a fetcher.
type Collector struct {
	fetcher domain.Fetcher
	proxies domain.ProxySource
	sink    domain.BatchSink
	log     *logger.Logger

	concurrency int
	timeout     time.Duration
	retry       retry.Config
	userAgent   func() string
	clock       timeutil.Clock

	limiter *rate.Limiter
	sem     *semaphore.Weighted

	tracker atomic.Pointer[Tracker]

	mu      sync.Mutex
	ignored domain.PairSet

	pairs        atomic.Int64
	filesWritten atomic.Int64
	skipped      atomic.Int64
	warnings     atomic.Int64
}

// NewCollector creates a Collector. Zero config values fall back to defaults.
func NewCollector(fetcher domain.Fetcher, proxies domain.ProxySource, sink domain.BatchSink, log *logger.Logger, cfg Config) *Collector {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = def.Retry
	}
	if cfg.UserAgent == nil {
		cfg.UserAgent = func() string { return "" }
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Collector{
		fetcher:     fetcher,
		proxies:     proxies,
		sink:        sink,
		log:         log.WithProtocol(fetcher.Name()),
		concurrency: cfg.Concurrency,
		timeout:     cfg.FetchTimeout,
		retry:       cfg.Retry,
		userAgent:   cfg.UserAgent,
		clock:       cfg.Clock,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		sem:         semaphore.NewWeighted(int64(cfg.Concurrency)),
		ignored:     domain.PairSet{},
	}
	c.tracker.Store(NewTracker(0, cfg.Clock))
	return c
}

// Tracker returns the progress tracker of the current run.
func (c *Collector) Tracker() *Tracker {
	return c.tracker.Load()
}

// Render draws the progress line of whichever run is current on w until ctx ends.
func (c *Collector) Render(ctx context.Context, w io.Writer, interval time.Duration) {
	render(ctx, w, interval, func() Snapshot { return c.Tracker().Snapshot() })
}

// Status returns the live counters of the current run.
func (c *Collector) Status() Status {
	return Status{Progress: c.Tracker().Snapshot(), Summary: c.summary()}
}

// Run collects every job of the plan. Pairs whose file already exists are
// skipped; pairs failing the early-abort rule are reported in Summary.Ignored
// and handed to the sink's side channel. Fetch failures never end the run;
// sink failures and cancellation do.
func (c *Collector) Run(ctx context.Context, plan Plan) (Summary, error) {
	tracker := NewTracker(plan.Units(), c.clock)
	c.tracker.Store(tracker)

	c.log.Info().
		Int("pairs", len(plan.Jobs)).
		Int("days", plan.Days).
		Int("threshold", plan.Threshold).
		Str("first_date", plan.FirstDate.Format(domain.DateLayout)).
		Int("units", plan.Units()).
		Msg("Collection started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, job := range plan.Jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return c.collectPair(gctx, plan, job)
		})
	}
	err := g.Wait()

	summary := c.summary()
	if len(summary.Ignored) > 0 {
		if werr := c.sink.WriteIgnored(plan.FirstDate, plan.CollectDate, summary.Ignored); werr != nil {
			c.log.Error().Err(werr).Msg("Failed to write ignored pairs")
		}
	}

	c.log.Info().
		Int("files_written", summary.FilesWritten).
		Int("skipped", summary.Skipped).
		Int("ignored", len(summary.Ignored)).
		Int("warnings", summary.Warnings).
		Msg("Collection finished")

	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

func (c *Collector) summary() Summary {
	c.mu.Lock()
	ignored := make([]domain.Pair, 0, len(c.ignored))
	for p := range c.ignored {
		ignored = append(ignored, p)
	}
	c.mu.Unlock()
	sort.Slice(ignored, func(i, j int) bool { return ignored[i].String() < ignored[j].String() })

	return Summary{
		Pairs:        int(c.pairs.Load()),
		FilesWritten: int(c.filesWritten.Load()),
		Skipped:      int(c.skipped.Load()),
		Warnings:     int(c.warnings.Load()),
		Ignored:      ignored,
	}
}

// direction is one directed leg of a job.
type direction struct {
	origin      string
	destination string
}

func directionsOf(job Job, withReturn bool) []direction {
	dirs := []direction{{job.Origin, job.Destination}}
	if withReturn {
		dirs = append(dirs, direction{job.Destination, job.Origin})
	}
	return dirs
}

// collectPair runs one job: day 0 sequentially for the early-abort rule,
// then every remaining (day, direction) in parallel. The batch is handed to
// the sink only when every day finished.
func (c *Collector) collectPair(ctx context.Context, plan Plan, job Job) error {
	log := c.log.WithPair(job.Origin, job.Destination)
	tracker := c.Tracker()
	units := plan.UnitsPerJob()
	c.pairs.Add(1)

	batch := domain.Batch{
		Origin:      job.Origin,
		Destination: job.Destination,
		WithReturn:  plan.WithReturn,
		FirstDate:   plan.FirstDate,
		CollectDate: plan.CollectDate,
	}

	exists, err := c.sink.Exists(batch)
	if err != nil {
		return fmt.Errorf("check %s: %w", batch.FileName(), err)
	}
	if exists {
		tracker.Drop(units)
		c.skipped.Add(1)
		log.Info().Str("file", batch.FileName()).Msg("Pair already collected, skipping")
		return nil
	}

	dirs := directionsOf(job, plan.WithReturn)
	results := make([][][]domain.FlightRecord, plan.Days)
	for i := range results {
		results[i] = make([][]domain.FlightRecord, len(dirs))
	}

	need := max(plan.Threshold, 1)
	for k, dir := range dirs {
		records, err := c.fetchDay(ctx, c.request(plan, 0, dir), need)
		if err != nil {
			log.Warn().Err(err).Msg("Pair cancelled, batch dropped")
			return err
		}
		tracker.Done()

		if plan.Threshold > 0 && len(records) < plan.Threshold {
			c.ignore(job.Pair())
			tracker.Drop(units - (k + 1))
			log.Info().
				Str("from", dir.origin).
				Str("to", dir.destination).
				Int("records", len(records)).
				Int("threshold", plan.Threshold).
				Msg("Sparse route, pair ignored")
			return nil
		}
		results[0][k] = records
	}

	g, gctx := errgroup.WithContext(ctx)
	for day := 1; day < plan.Days; day++ {
		for k, dir := range dirs {
			g.Go(func() error {
				records, err := c.fetchDay(gctx, c.request(plan, day, dir), 1)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					log.Debug().
						Str("from", dir.origin).
						Str("to", dir.destination).
						Str("date", plan.FlightDate(day).Format(domain.DateLayout)).
						Msg("No records after retries")
				}
				results[day][k] = records
				tracker.Done()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("Pair cancelled, batch dropped")
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, day := range results {
		for _, records := range day {
			batch.Records = append(batch.Records, records...)
		}
	}
	if err := c.sink.Write(ctx, batch); err != nil {
		return fmt.Errorf("write %s: %w", batch.FileName(), err)
	}
	c.filesWritten.Add(1)

	log.Info().
		Str("file", batch.FileName()).
		Int("records", len(batch.Records)).
		Msg("Pair collected")
	return nil
}

func (c *Collector) ignore(p domain.Pair) {
	c.mu.Lock()
	c.ignored[p] = struct{}{}
	c.mu.Unlock()
}

func (c *Collector) request(plan Plan, day int, dir direction) domain.FetchRequest {
	return domain.FetchRequest{
		FlightDate:  plan.FlightDate(day),
		Origin:      dir.origin,
		Destination: dir.destination,
	}
}

// fetchDay retries one directed day until an attempt yields at least need
// records. It keeps the largest attempt. The error is non-nil only when ctx ends.
func (c *Collector) fetchDay(ctx context.Context, req domain.FetchRequest, need int) ([]domain.FlightRecord, error) {
	var best []domain.FlightRecord
	_, _, _, err := retry.Until(ctx, func(int) domain.FetchOutcome {
		out := c.fetchOnce(ctx, req)
		if len(out.Records) > len(best) {
			best = out.Records
		}
		return out
	}, func(out domain.FetchOutcome) bool {
		return len(out.Records) >= need
	}, c.retry)
	if err != nil {
		return nil, err
	}
	return best, nil
}

// fetchOnce performs one throttled attempt with a fresh proxy and user agent.
func (c *Collector) fetchOnce(ctx context.Context, req domain.FetchRequest) (out domain.FetchOutcome) {
	name := c.fetcher.Name()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return domain.Failed(domain.NewTransportError(name, err))
	}
	defer c.sem.Release(1)

	if p, ok := c.proxies.Next(ctx); ok {
		req.Proxy = p
	}
	req.UserAgent = c.userAgent()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Failed(domain.NewTransportError(name, err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// A panicking fetcher must not take the run down
	defer func() {
		if r := recover(); r != nil {
			out = domain.Failed(domain.NewTransportError(name, fmt.Errorf("fetcher panic: %v", r)))
		}
	}()

	out = c.fetcher.Fetch(ctx, req)
	c.warnings.Add(int64(out.Warnings))
	if out.Err != nil {
		c.log.Debug().
			Err(out.Err).
			Str("outcome", out.Kind.String()).
			Str("from", req.Origin).
			Str("to", req.Destination).
			Str("date", req.FlightDate.Format(domain.DateLayout)).
			Bool("proxied", req.Proxy != "").
			Msg("Fetch attempt failed")
	}
	return out
}
