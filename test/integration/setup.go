// Package integration provides helpers and integration tests for the fare harvester.
// Integration tests verify that components work together correctly: the
// collector over a fake fetcher, the pair writer on an in-memory filesystem,
// the rebuilder reading the written workbooks, and the status API.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	statushttp "github.com/flight-fares/fare-harvester/internal/adapter/http"
	"github.com/flight-fares/fare-harvester/internal/config"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/retry"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/rebuild"
	"github.com/flight-fares/fare-harvester/internal/refdb"
	"github.com/flight-fares/fare-harvester/internal/sink"
	"github.com/flight-fares/fare-harvester/internal/usecase"
	"github.com/flight-fares/fare-harvester/test/mock"
)

// OutDir is the output root of every harness.
const OutDir = "/data"

// Today is the collection date of every harness.
const Today = "2026-10-16"

// fastRetry keeps failing days from slowing the suite down.
var fastRetry = retry.Config{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     time.Millisecond,
	Multiplier:   1,
}

// Harness wires a collector to an in-memory output tree.
type Harness struct {
	Fs        afero.Fs
	Ref       *refdb.DB
	Fetcher   *mock.Fetcher
	Pairs     *sink.PairWriter
	Views     *rebuild.Rebuilder
	Collector *usecase.Collector
	Clock     *timeutil.MockClock
}

// Options tunes a harness.
type Options struct {
	Format      string
	Concurrency int

	// Live tees written batches into a rebuilder with every view
	Live bool

	// Fs reuses the output tree of an earlier harness
	Fs afero.Fs
}

// NewHarness creates a harness around fetcher.
func NewHarness(t *testing.T, fetcher *mock.Fetcher, opts Options) *Harness {
	t.Helper()
	if opts.Format == "" {
		opts.Format = config.FormatXLSX
	}

	ref, err := refdb.Default()
	require.NoError(t, err)

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	pairs := sink.NewPairWriter(fs, sink.PairConfig{Dir: OutDir, Format: opts.Format}, logger.Nop())

	h := &Harness{
		Fs:      fs,
		Ref:     ref,
		Fetcher: fetcher,
		Pairs:   pairs,
		Clock:   timeutil.NewMockClockFromDate(Today),
	}

	var batches domain.BatchSink = pairs
	if opts.Live {
		h.Views, err = rebuild.New(ref, logger.Nop())
		require.NoError(t, err)
		batches = rebuild.NewSink(pairs, h.Views)
	}

	h.Collector = usecase.NewCollector(fetcher, directProxies{}, batches, logger.Nop(), usecase.Config{
		Concurrency:  opts.Concurrency,
		RateLimit:    1000,
		RateBurst:    100,
		FetchTimeout: time.Second,
		Retry:        fastRetry,
		Clock:        h.Clock,
	})
	return h
}

// Plan builds the plan of a run over cities starting tomorrow.
func (h *Harness) Plan(t *testing.T, cities []string, days, threshold int, withReturn bool) usecase.Plan {
	t.Helper()
	plan, err := usecase.BuildPlan(usecase.PlanConfig{
		Cities:     cities,
		Days:       days,
		Threshold:  threshold,
		WithReturn: withReturn,
	}, h.Ref, timeutil.Today(h.Clock))
	require.NoError(t, err)
	return plan
}

// Run collects plan and returns its summary.
func (h *Harness) Run(t *testing.T, plan usecase.Plan) usecase.Summary {
	t.Helper()
	summary, err := h.Collector.Run(context.Background(), plan)
	require.NoError(t, err)
	return summary
}

// RunDir is the run folder of plan relative to the filesystem root.
func (h *Harness) RunDir(plan usecase.Plan) string {
	return h.Pairs.RunDir(plan.FirstDate, plan.CollectDate)
}

// directProxies always fetches direct.
type directProxies struct{}

func (directProxies) Next(context.Context) (string, bool) {
	return "", false
}

// StatusAPI serves the status routes of a harness collector.
type StatusAPI struct {
	Echo *echo.Echo
}

// NewStatusAPI creates the status routes for h.
func NewStatusAPI(h *Harness) *StatusAPI {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	statushttp.RegisterRoutes(e, statushttp.NewStatusHandler(h.Collector, "run-it", h.Clock))
	return &StatusAPI{Echo: e}
}

// Response represents a test HTTP response.
type Response struct {
	Code int
	Body []byte
}

// Get executes a GET request against the status routes.
func (s *StatusAPI) Get(path string) Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return Response{Code: rec.Code, Body: rec.Body.Bytes()}
}

// Decode unmarshals the response body into v.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v))
}
