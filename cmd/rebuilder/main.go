// Package main is the entry point of the view rebuilder. It reads harvested
// per-pair workbooks from a folder, a zip archive or the record store and
// writes the selected analytic views.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/flight-fares/fare-harvester/internal/config"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/rebuild"
	"github.com/flight-fares/fare-harvester/internal/refdb"
	"github.com/flight-fares/fare-harvester/internal/sink"
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

	fs := pflag.NewFlagSet("rebuilder", pflag.ContinueOnError)
	cfg.BindRebuildFlags(fs)
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

	log, _ := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "fare-rebuilder",
	}).WithRun()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rebuildViews(ctx, cfg, log); err != nil {
		code := domain.ExitCode(err)
		log.Error().Err(err).Int("exit_code", code).Msg("Rebuild failed")
		return code
	}
	return domain.ExitOK
}

func rebuildViews(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	osFs := afero.NewOsFs()

	var ref *refdb.DB
	var err error
	if cfg.RefDBPath == "" {
		ref, err = refdb.Default()
	} else {
		ref, err = refdb.Open(osFs, cfg.RefDBPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	r, err := rebuild.New(ref, log, cfg.Rebuild.Views...)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	var src rebuild.BatchSource
	if cfg.Output.StorePath != "" {
		store, err := sink.OpenStore(cfg.Output.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()
		src = store
	}

	tmpDir, err := afero.TempDir(osFs, "", "fare-rebuild-")
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Unlink(osFs); err != nil {
			log.Warn().Err(err).Msg("Failed to remove extracted workbooks")
		}
		_ = osFs.RemoveAll(tmpDir)
	}()

	stats, err := r.Load(ctx, osFs, cfg.Rebuild.Input, tmpDir, src)
	if err != nil {
		return err
	}
	log.Info().
		Str("input", cfg.Rebuild.Input).
		Int("files", stats.Files).
		Int("records", stats.Records).
		Int("bad_rows", stats.BadRows).
		Msg("Records loaded")

	files, err := r.Write(ctx, sink.NewWriter(osFs, cfg.Output.Format, cfg.Output.ValuesOnly), cfg.Output.Dir)
	if err != nil {
		return err
	}
	log.Info().Strs("views", r.Views()).Int("files", len(files)).Str("out", cfg.Output.Dir).Msg("Views written")
	return nil
}
