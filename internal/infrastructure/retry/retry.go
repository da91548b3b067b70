// Package retry provides bounded retry loops with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Config holds the retry configuration options.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first one.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows after each retry.
	Multiplier float64

	// JitterFactor adds up to this fraction of the delay as random jitter.
	JitterFactor float64

	// RetryIf decides whether an error is retryable. Nil retries every error.
	RetryIf func(error) bool
}

// FetchConfig drives the per-day fetch loop: three attempts, each with a fresh
// proxy and user agent, so the backoff is short.
var FetchConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     time.Second,
	Multiplier:   2.0,
	JitterFactor: 0.5,
}

// StartupConfig is used for one-off startup requests such as proxy list retrieval.
var StartupConfig = Config{
	MaxAttempts:  5,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	JitterFactor: 0.2,
}

// DoWithResult executes fn until it succeeds, returns a non-retryable error,
// or the attempts run out. It returns the last result and error.
func DoWithResult[T any](ctx context.Context, fn func() (T, error), cfg Config) (T, error) {
	var result T
	var lastErr error

	err := loop(ctx, cfg, func(int) bool {
		result, lastErr = fn()
		if lastErr == nil {
			return true
		}
		return cfg.RetryIf != nil && !cfg.RetryIf(lastErr)
	})
	if err != nil {
		return result, err
	}
	return result, lastErr
}

// Until calls fn until accept approves its result or the attempts run out.
// It returns the last result, the number of attempts made and whether the
// last result was accepted. The error is non-nil only on context cancellation.
func Until[T any](ctx context.Context, fn func(attempt int) T, accept func(T) bool, cfg Config) (T, int, bool, error) {
	var result T
	attempts := 0
	accepted := false

	err := loop(ctx, cfg, func(attempt int) bool {
		attempts = attempt
		result = fn(attempt)
		accepted = accept(result)
		return accepted
	})
	return result, attempts, accepted, err
}

// loop runs step with backoff until it reports done. It returns a context
// error if the context ends before or between attempts.
func loop(ctx context.Context, cfg Config, step func(attempt int) bool) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step(attempt) || attempt == cfg.MaxAttempts {
			return nil
		}
		if err := Sleep(ctx, calculateSleepTime(delay, cfg.MaxDelay, cfg.JitterFactor)); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	return nil
}

// Sleep waits for d or until ctx ends, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateSleepTime computes the sleep duration with jitter and max cap.
func calculateSleepTime(delay, maxDelay time.Duration, jitterFactor float64) time.Duration {
	sleepTime := delay + time.Duration(rand.Float64()*float64(delay)*jitterFactor)
	if maxDelay > 0 && sleepTime > maxDelay {
		sleepTime = maxDelay
	}
	return sleepTime
}

// Permanent wraps an error to indicate it should not be retried.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string {
	if p.Err == nil {
		return "permanent error"
	}
	return p.Err.Error()
}

func (p *Permanent) Unwrap() error {
	return p.Err
}

// NewPermanent creates a permanent (non-retryable) error.
func NewPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// IsPermanent checks if an error is permanent (non-retryable).
func IsPermanent(err error) bool {
	var permanent *Permanent
	return errors.As(err, &permanent)
}

// SkipPermanent is a RetryIf predicate that skips permanent errors.
func SkipPermanent(err error) bool {
	return !IsPermanent(err)
}

// WithRetryIf returns a new config with the given RetryIf predicate.
func (c Config) WithRetryIf(fn func(error) bool) Config {
	c.RetryIf = fn
	return c
}

// NoDelay returns a new config that retries immediately.
func (c Config) NoDelay() Config {
	c.InitialDelay = 0
	c.MaxDelay = 0
	c.JitterFactor = 0
	return c
}
