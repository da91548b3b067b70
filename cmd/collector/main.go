// Package main is the entry point of the fare collector. It collects the
// itineraries of a city matrix for a window of flight dates and writes one
// workbook per city pair.
//
// Exit codes: 1 empty city list, 2 fewer than two cities, 3 empty day range,
// 4 nothing left after skipping, 5 any other failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	statushttp "github.com/flight-fares/fare-harvester/internal/adapter/http"
	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
	"github.com/flight-fares/fare-harvester/internal/adapter/provider/batchsearch"
	"github.com/flight-fares/fare-harvester/internal/adapter/provider/products"
	"github.com/flight-fares/fare-harvester/internal/adapter/proxy"
	"github.com/flight-fares/fare-harvester/internal/config"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/rebuild"
	"github.com/flight-fares/fare-harvester/internal/refdb"
	"github.com/flight-fares/fare-harvester/internal/sink"
	"github.com/flight-fares/fare-harvester/internal/usecase"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return domain.ExitCode(err)
	}

	fs := pflag.NewFlagSet("collector", pflag.ContinueOnError)
	cfg.BindCollectorFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return domain.ExitOK
		}
		return domain.ExitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return domain.ExitCode(err)
	}

	log, runID := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "fare-collector",
	}).WithRun()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := collect(ctx, cfg, log, runID); err != nil {
		code := domain.ExitCode(err)
		log.Error().Err(err).Int("exit_code", code).Msg("Collection failed")
		return code
	}
	return domain.ExitOK
}

func collect(ctx context.Context, cfg *config.Config, log *logger.Logger, runID string) error {
	osFs := afero.NewOsFs()
	clock := timeutil.NewRealClock()

	ref, err := loadRefDB(osFs, cfg.RefDBPath)
	if err != nil {
		return err
	}

	plan, err := buildPlan(cfg.Collector, ref, timeutil.Today(clock))
	if err != nil {
		return err
	}

	proxies, err := proxy.New(ctx, cfg.Proxy.Spec, cfg.Proxy.PoolBackoff, log)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	pairCfg := sink.PairConfig{
		Dir:        cfg.Output.Dir,
		Format:     cfg.Output.Format,
		ValuesOnly: cfg.Output.ValuesOnly,
	}
	if cfg.Output.Preprocess {
		pairCfg.Preprocessor = preprocess.New(ref, preprocess.DefaultHolidayTable())
	}
	if cfg.Output.StorePath != "" {
		store, err := sink.OpenStore(cfg.Output.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()
		pairCfg.Store = store
	}
	pairs := sink.NewPairWriter(osFs, pairCfg, log)

	var (
		batches domain.BatchSink = pairs
		views   *rebuild.Rebuilder
	)
	if cfg.Output.Rebuild {
		views, err = rebuild.New(ref, log, cfg.Rebuild.Views...)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		batches = rebuild.NewSink(pairs, views)
	}

	collector := usecase.NewCollector(newFetcher(cfg.Fetch, ref), proxies, batches, log, usecase.Config{
		Concurrency:  cfg.Collector.Concurrency,
		RateLimit:    cfg.Collector.RateLimit,
		RateBurst:    cfg.Collector.Burst,
		FetchTimeout: cfg.Fetch.Timeout,
		UserAgent:    provider.RandomUserAgent,
		Clock:        clock,
	})

	bgCtx, stopBg := context.WithCancel(ctx)
	var done []chan struct{}
	defer func() {
		stopBg()
		for _, ch := range done {
			<-ch
		}
	}()

	rendered := make(chan struct{})
	done = append(done, rendered)
	go func() {
		defer close(rendered)
		collector.Render(bgCtx, os.Stderr, usecase.DefaultRenderInterval)
	}()

	if cfg.Status.Addr != "" {
		srv := statushttp.NewServer(cfg.Status, statushttp.NewStatusHandler(collector, runID, clock), log)
		served := make(chan struct{})
		done = append(done, served)
		go func() {
			defer close(served)
			if err := srv.ListenAndServe(bgCtx); err != nil {
				log.Error().Err(err).Str("address", cfg.Status.Addr).Msg("Status API failed")
			}
		}()
	}

	summary, err := collector.Run(ctx, plan)
	if err != nil {
		return err
	}

	if cfg.Output.Archive {
		res, err := sink.Archive(osFs, cfg.Output.Dir, plan.FirstDate, plan.CollectDate)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		log.Info().Int("orig", res.Orig).Int("preproc", res.Preproc).Msg("Run folder archived")
	}

	if views != nil {
		dir := filepath.Join(pairs.RunDir(plan.FirstDate, plan.CollectDate), "views")
		files, err := views.Write(ctx, sink.NewWriter(osFs, cfg.Output.Format, cfg.Output.ValuesOnly), dir)
		if err != nil {
			return fmt.Errorf("rebuild: %w", err)
		}
		log.Info().Int("files", len(files)).Int("records", views.Records()).Msg("Views written")
	}

	log.Info().
		Int("pairs", summary.Pairs).
		Int("files_written", summary.FilesWritten).
		Int("skipped", summary.Skipped).
		Int("ignored", len(summary.Ignored)).
		Msg("Collection complete")
	return nil
}

// loadRefDB opens the reference dataset, preferring an override file.
func loadRefDB(fs afero.Fs, path string) (*refdb.DB, error) {
	if path == "" {
		return refdb.Default()
	}
	db, err := refdb.Open(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return db, nil
}

func buildPlan(col config.CollectorConfig, ref *refdb.DB, today time.Time) (usecase.Plan, error) {
	var first time.Time
	if col.FirstDate != "" {
		d, err := timeutil.ParseDate(col.FirstDate)
		if err != nil {
			return usecase.Plan{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		first = d
	}

	return usecase.BuildPlan(usecase.PlanConfig{
		Cities:     col.Cities,
		FirstDate:  first,
		Days:       col.Days,
		DayLimit:   col.DayLimit,
		Threshold:  col.IgnoreThreshold,
		Ignore:     col.IgnorePairs(),
		WithReturn: col.WithReturn,
		FromCity:   col.FromCity,
		ToCity:     col.ToCity,
	}, ref, today)
}

// newFetcher builds the itinerary fetcher of the configured protocol.
func newFetcher(cfg config.FetchConfig, places provider.Places) domain.Fetcher {
	if cfg.Protocol == config.ProtocolBatch {
		return batchsearch.NewAdapter(batchsearch.Config{
			ListURL:   cfg.BatchListURL,
			SearchURL: cfg.BatchSearchURL,
			Timeout:   cfg.Timeout,
		}, places)
	}
	return products.NewAdapter(products.Config{
		URL:     cfg.ProductsURL,
		Timeout: cfg.Timeout,
	}, places)
}
