// Package config provides application configuration management.
// It loads configuration from environment variables with support for .env files.
// Command-line flags registered through Bind* override the loaded values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/flight-fares/fare-harvester/internal/domain"
)

// Fetch protocols.
const (
	ProtocolProducts = "products"
	ProtocolBatch    = "batch"
)

// Proxy modes.
const (
	ProxyNone = "none"
	ProxyPool = "pool"
	ProxyList = "list"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// AllViews lists the analytic views in materialization order.
var AllViews = []string{"airline", "buyday", "city", "flyday", "time", "type"}

// Config holds all application configuration.
type Config struct {
	Collector CollectorConfig
	Fetch     FetchConfig
	Proxy     ProxyConfig
	Output    OutputConfig
	Rebuild   RebuildConfig
	Status    StatusConfig
	Logging   LoggingConfig

	// RefDBPath overrides the embedded reference dataset
	RefDBPath string `env:"REFDB_PATH"`
}

// CollectorConfig holds the collection matrix settings.
type CollectorConfig struct {
	// Cities are the city codes of the matrix
	Cities []string `env:"CITIES" envSeparator:","`

	// FirstDate is the first flight date (YYYY-MM-DD); empty means tomorrow
	FirstDate string `env:"FIRST_DATE"`

	// Days is the number of lead days to collect
	Days int `env:"DAYS" envDefault:"30"`

	// DayLimit caps the furthest flight date relative to today; 0 disables the cap
	DayLimit int `env:"DAY_LIMIT" envDefault:"0"`

	// IgnoreThreshold is the minimum day-0 record count that keeps a pair alive
	IgnoreThreshold int `env:"IGNORE_THRESHOLD" envDefault:"3"`

	// Ignore lists extra unordered pairs to skip ("AAA-BBB")
	Ignore []string `env:"IGNORE" envSeparator:","`

	// WithReturn also collects the inbound direction
	WithReturn bool `env:"WITH_RETURN" envDefault:"true"`

	// FromCity and ToCity restrict the origin slice of the city list; ToCity 0 means the end
	FromCity int `env:"FROM_CITY" envDefault:"0"`
	ToCity   int `env:"TO_CITY" envDefault:"0"`

	// Concurrency bounds the number of in-flight fetches
	Concurrency int `env:"CONCURRENCY" envDefault:"16"`

	// RateLimit is the sustained request rate per second; Burst is the bucket size
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"8"`
	Burst     int     `env:"RATE_BURST" envDefault:"4"`
}

// FetchConfig holds upstream endpoint settings.
type FetchConfig struct {
	Protocol       string        `env:"FETCH_PROTOCOL" envDefault:"products"`
	Timeout        time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	ProductsURL    string        `env:"PRODUCTS_URL" envDefault:"https://flights.ctrip.com/itinerary/api/12808/products"`
	BatchListURL   string        `env:"BATCH_LIST_URL" envDefault:"https://flights.ctrip.com/international/search/api/flightlist/oneway"`
	BatchSearchURL string        `env:"BATCH_SEARCH_URL" envDefault:"https://flights.ctrip.com/international/search/api/search/batchSearch"`
}

// ProxyConfig holds proxy source settings.
type ProxyConfig struct {
	// Spec is "none", "pool=URL" or "list=URL"
	Spec string `env:"PROXY" envDefault:"none"`

	// PoolBackoff is the upper bound of the random sleep after a pool miss
	PoolBackoff time.Duration `env:"PROXY_POOL_BACKOFF" envDefault:"3s"`
}

// OutputConfig holds sink settings.
type OutputConfig struct {
	Dir        string `env:"OUT_DIR" envDefault:"data"`
	Format     string `env:"OUT_FORMAT" envDefault:"xlsx"`
	ValuesOnly bool   `env:"VALUES_ONLY" envDefault:"false"`
	Preprocess bool   `env:"PREPROCESS" envDefault:"false"`
	Archive    bool   `env:"ARCHIVE" envDefault:"false"`

	// Rebuild materializes the analytic views of the batches written by a run
	Rebuild bool `env:"REBUILD" envDefault:"false"`

	// StorePath is the SQLite record store; empty disables it
	StorePath string `env:"STORE_PATH"`
}

// RebuildConfig holds rebuilder settings.
type RebuildConfig struct {
	// Input is a folder, a zip archive, or "store" to read the record store
	Input string   `env:"REBUILD_INPUT" envDefault:"data"`
	Views []string `env:"REBUILD_VIEWS" envSeparator:"," envDefault:"airline,buyday,city,flyday,time,type"`
}

// StatusConfig holds the operator status API settings.
type StatusConfig struct {
	// Addr is the listen address; empty disables the API
	Addr            string        `env:"STATUS_ADDR"`
	ReadTimeout     time.Duration `env:"STATUS_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"STATUS_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"STATUS_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first (optional - won't fail if missing).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks configuration values for correctness.
// City list problems are left to the collector, which maps them to exit codes.
func (c *Config) Validate() error {
	if err := validate(c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return nil
}

func validate(cfg *Config) error {
	col := cfg.Collector
	if col.Days < 0 {
		return fmt.Errorf("DAYS must not be negative, got %d", col.Days)
	}
	if col.DayLimit < 0 {
		return fmt.Errorf("DAY_LIMIT must not be negative, got %d", col.DayLimit)
	}
	if col.IgnoreThreshold < 0 {
		return fmt.Errorf("IGNORE_THRESHOLD must not be negative, got %d", col.IgnoreThreshold)
	}
	if col.FirstDate != "" {
		if _, err := time.Parse(domain.DateLayout, col.FirstDate); err != nil {
			return fmt.Errorf("FIRST_DATE must be YYYY-MM-DD, got %q", col.FirstDate)
		}
	}
	for _, p := range col.Ignore {
		if _, err := domain.ParsePair(p); err != nil {
			return fmt.Errorf("IGNORE: %w", err)
		}
	}
	if col.FromCity < 0 || col.ToCity < 0 {
		return fmt.Errorf("FROM_CITY and TO_CITY must not be negative")
	}
	if col.ToCity > 0 && col.ToCity <= col.FromCity {
		return fmt.Errorf("TO_CITY (%d) must be greater than FROM_CITY (%d)", col.ToCity, col.FromCity)
	}
	if col.Concurrency < 1 {
		return fmt.Errorf("CONCURRENCY must be at least 1, got %d", col.Concurrency)
	}
	if col.RateLimit <= 0 || col.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT must be positive and RATE_BURST at least 1")
	}

	if cfg.Fetch.Protocol != ProtocolProducts && cfg.Fetch.Protocol != ProtocolBatch {
		return fmt.Errorf("FETCH_PROTOCOL must be one of: products, batch; got %q", cfg.Fetch.Protocol)
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if _, _, err := ParseProxy(cfg.Proxy.Spec); err != nil {
		return err
	}
	if cfg.Proxy.PoolBackoff < 0 {
		return fmt.Errorf("PROXY_POOL_BACKOFF must not be negative")
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("OUT_DIR must not be empty")
	}
	if cfg.Output.Format != FormatXLSX && cfg.Output.Format != FormatCSV {
		return fmt.Errorf("OUT_FORMAT must be one of: xlsx, csv; got %q", cfg.Output.Format)
	}

	known := make(map[string]bool, len(AllViews))
	for _, v := range AllViews {
		known[v] = true
	}
	for _, v := range cfg.Rebuild.Views {
		if !known[v] {
			return fmt.Errorf("REBUILD_VIEWS must be a subset of %s; got %q", strings.Join(AllViews, ","), v)
		}
	}

	if cfg.Status.ShutdownTimeout <= 0 {
		return fmt.Errorf("STATUS_SHUTDOWN_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", cfg.Logging.Format)
	}

	return nil
}

// ParseProxy splits a proxy spec into its mode and URL.
func ParseProxy(spec string) (mode, url string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == ProxyNone {
		return ProxyNone, "", nil
	}
	mode, url, ok := strings.Cut(spec, "=")
	if !ok || url == "" || (mode != ProxyPool && mode != ProxyList) {
		return "", "", fmt.Errorf("PROXY must be none, pool=URL or list=URL; got %q", spec)
	}
	return mode, url, nil
}

// IgnorePairs returns the extra skip pairs as a set.
func (c CollectorConfig) IgnorePairs() domain.PairSet {
	set := domain.PairSet{}
	for _, s := range c.Ignore {
		if p, err := domain.ParsePair(s); err == nil {
			set[p] = struct{}{}
		}
	}
	return set
}
