// Package logger provides structured logging using zerolog.
// It supports JSON and console output formats with configurable log levels.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the logger configuration options.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the output format (json, console)
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// EnableCaller adds caller information to log entries
	EnableCaller bool `env:"LOG_CALLER" envDefault:"false"`

	// ServiceName is the name of the binary for log context
	ServiceName string `env:"SERVICE_NAME" envDefault:"fare-harvester"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "fare-harvester",
	}
}

// Logger wraps zerolog.Logger with run context helpers.
type Logger struct {
	zerolog.Logger
}

// New creates a new Logger writing to stdout.
// The progress line owns stderr, so log records never split it.
func New(cfg Config) *Logger {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput creates a new Logger with custom output writer.
func NewWithOutput(cfg Config, output io.Writer) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = output
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.DateTime,
		}
	}

	ctx := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName)

	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}

	return &Logger{Logger: ctx.Logger()}
}

// WithContext returns a new logger with an additional string field.
func (l *Logger) WithContext(key, value string) *Logger {
	return &Logger{Logger: l.With().Str(key, value).Logger()}
}

// WithRun returns a logger tagged with a fresh run ID, and the ID itself.
func (l *Logger) WithRun() (*Logger, string) {
	id := uuid.NewString()
	return l.WithContext("run_id", id), id
}

// WithPair returns a logger tagged with a directed route.
func (l *Logger) WithPair(origin, destination string) *Logger {
	return &Logger{Logger: l.With().Str("origin", origin).Str("destination", destination).Logger()}
}

// WithProtocol returns a logger tagged with the fetch protocol.
func (l *Logger) WithProtocol(protocol string) *Logger {
	return l.WithContext("protocol", protocol)
}

// Nop returns a disabled logger that produces no output.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// SetGlobal installs l as zerolog's package-level logger, which code running
// before the run logger exists (config loading) also writes through.
func SetGlobal(l *Logger) {
	log.Logger = l.Logger
}
