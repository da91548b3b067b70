package config

import (
	"github.com/spf13/pflag"
)

// BindCollectorFlags registers the collector flags on fs. Defaults are the
// values already loaded from the environment, so flags override env.
func (c *Config) BindCollectorFlags(fs *pflag.FlagSet) {
	col := &c.Collector
	fs.StringSliceVar(&col.Cities, "cities", col.Cities, "city codes of the matrix, comma separated")
	fs.StringVar(&col.FirstDate, "first-date", col.FirstDate, "first flight date (YYYY-MM-DD), default tomorrow")
	fs.IntVar(&col.Days, "days", col.Days, "number of lead days to collect")
	fs.IntVar(&col.DayLimit, "day-limit", col.DayLimit, "furthest flight date in days from today, 0 for no limit")
	fs.IntVar(&col.IgnoreThreshold, "ignore-threshold", col.IgnoreThreshold, "minimum day-0 records that keep a pair")
	fs.StringSliceVar(&col.Ignore, "ignore", col.Ignore, "extra pairs to skip, e.g. BJS-TSN")
	fs.BoolVar(&col.WithReturn, "with-return", col.WithReturn, "also collect the inbound direction")
	fs.IntVar(&col.FromCity, "from-city", col.FromCity, "first origin index in the city list")
	fs.IntVar(&col.ToCity, "to-city", col.ToCity, "origin index upper bound (exclusive), 0 for the end")
	fs.IntVar(&col.Concurrency, "concurrency", col.Concurrency, "maximum in-flight fetches")
	fs.Float64Var(&col.RateLimit, "rate", col.RateLimit, "sustained requests per second")

	fs.StringVar(&c.Fetch.Protocol, "protocol", c.Fetch.Protocol, "fetch protocol: products or batch")
	fs.StringVar(&c.Proxy.Spec, "proxy", c.Proxy.Spec, "proxy source: none, pool=URL or list=URL")

	c.bindOutputFlags(fs)
	fs.BoolVar(&c.Output.Preprocess, "preprocess", c.Output.Preprocess, "also write preprocessed workbooks")
	fs.BoolVar(&c.Output.Archive, "archive", c.Output.Archive, "zip the run folder when done")
	fs.BoolVar(&c.Output.Rebuild, "rebuild", c.Output.Rebuild, "write the analytic views of this run when done")
	fs.StringVar(&c.Status.Addr, "status-addr", c.Status.Addr, "listen address of the status API, empty to disable")
}

// BindRebuildFlags registers the rebuilder flags on fs.
func (c *Config) BindRebuildFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Rebuild.Input, "in", c.Rebuild.Input, "input folder, zip archive, or \"store\"")
	fs.StringSliceVar(&c.Rebuild.Views, "views", c.Rebuild.Views, "views to materialize")
	c.bindOutputFlags(fs)
}

func (c *Config) bindOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Output.Dir, "out", c.Output.Dir, "output folder")
	fs.StringVar(&c.Output.Format, "format", c.Output.Format, "output format: xlsx or csv")
	fs.BoolVar(&c.Output.ValuesOnly, "values-only", c.Output.ValuesOnly, "skip workbook formatting")
	fs.StringVar(&c.Output.StorePath, "store", c.Output.StorePath, "SQLite record store path, empty to disable")
	fs.StringVar(&c.RefDBPath, "refdb", c.RefDBPath, "reference dataset override")
	fs.StringVar(&c.Logging.Level, "log-level", c.Logging.Level, "log level")
	fs.StringVar(&c.Logging.Format, "log-format", c.Logging.Format, "log format: json or console")
}
