package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastConfig = Config{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     10 * time.Millisecond,
	Multiplier:   2.0,
}

func doErr(ctx context.Context, fn func() error, cfg Config) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, cfg)
	return err
}

func withAttempts(cfg Config, n int) Config {
	cfg.MaxAttempts = n
	return cfg
}

func TestDoWithResult_Attempts(t *testing.T) {
	temporary := errors.New("temporary")

	tests := []struct {
		name         string
		failures     int32
		cfg          Config
		wantErr      error
		wantAttempts int32
	}{
		{"success on first attempt", 0, fastConfig, nil, 1},
		{"success after retries", 2, withAttempts(fastConfig, 5), nil, 3},
		{"max attempts exceeded", 10, fastConfig, temporary, 3},
		{"zero max attempts defaults to one", 0, Config{}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			err := doErr(context.Background(), func() error {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					return temporary
				}
				return nil
			}, tt.cfg)

			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestDoWithResult_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	var attempts int32
	err := doErr(ctx, func() error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("temporary")
	}, Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: 100 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, context.Canceled, err)
	assert.GreaterOrEqual(t, attempts, int32(1))
}

func TestDoWithResult_ContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts int32
	err := doErr(ctx, func() error {
		atomic.AddInt32(&attempts, 1)
		return nil
	}, StartupConfig)

	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, int32(0), attempts)
}

func TestDoWithResult_SkipPermanent(t *testing.T) {
	var attempts int32
	err := doErr(context.Background(), func() error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("retryable")
		}
		return NewPermanent(errors.New("bad proxy list"))
	}, withAttempts(fastConfig, 5).WithRetryIf(SkipPermanent))

	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(2), attempts)
}

func TestDoWithResult_MaxDelayRespected(t *testing.T) {
	start := time.Now()
	err := doErr(context.Background(), func() error {
		return errors.New("error")
	}, Config{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: 60 * time.Millisecond, Multiplier: 10})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDoWithResult(t *testing.T) {
	var attempts int32
	result, err := DoWithResult(context.Background(), func() ([]string, error) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return nil, errors.New("temporary")
		}
		return []string{"http://10.0.0.1:8080"}, nil
	}, fastConfig)

	require.NoError(t, err)
	assert.Equal(t, []string{"http://10.0.0.1:8080"}, result)
	assert.Equal(t, int32(2), attempts)
}

func TestDoWithResult_LastResultOnFailure(t *testing.T) {
	expected := errors.New("persistent")
	result, err := DoWithResult(context.Background(), func() (string, error) {
		return "partial", expected
	}, fastConfig)

	assert.Equal(t, expected, err)
	assert.Equal(t, "partial", result)
}

func TestUntil(t *testing.T) {
	tests := []struct {
		name         string
		counts       []int
		threshold    int
		wantResult   int
		wantAttempts int
		wantAccepted bool
	}{
		{"accepted on first attempt", []int{5}, 3, 5, 1, true},
		{"accepted on third attempt", []int{0, 1, 4}, 3, 4, 3, true},
		{"never accepted", []int{0, 1, 2}, 3, 2, 3, false},
		{"zero threshold accepts any positive count", []int{0, 1}, 1, 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, attempts, accepted, err := Until(context.Background(),
				func(attempt int) int { return tt.counts[attempt-1] },
				func(n int) bool { return n >= tt.threshold },
				fastConfig)

			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantAccepted, accepted)
		})
	}
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, attempts, accepted, err := Until(ctx, func(int) int {
		calls++
		return 0
	}, func(int) bool { return true }, fastConfig)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
	assert.Zero(t, attempts)
	assert.False(t, accepted)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestPermanent(t *testing.T) {
	original := errors.New("validation failed")
	permanent := NewPermanent(original)

	assert.True(t, IsPermanent(permanent))
	assert.Equal(t, "validation failed", permanent.Error())
	assert.ErrorIs(t, permanent, original)

	assert.Nil(t, NewPermanent(nil))
	assert.False(t, IsPermanent(errors.New("regular")))
	assert.False(t, IsPermanent(nil))
	assert.Equal(t, "permanent error", (&Permanent{}).Error())
}

func TestConfig_Builders(t *testing.T) {
	cfg := StartupConfig.WithRetryIf(SkipPermanent)
	assert.Equal(t, StartupConfig.MaxAttempts, cfg.MaxAttempts)
	assert.NotNil(t, cfg.RetryIf)
	assert.Nil(t, StartupConfig.RetryIf)

	quick := FetchConfig.NoDelay()
	assert.Equal(t, 3, quick.MaxAttempts)
	assert.Zero(t, quick.InitialDelay)
	assert.Zero(t, calculateSleepTime(quick.InitialDelay, quick.MaxDelay, quick.JitterFactor))
}

func TestPresetConfigs(t *testing.T) {
	assert.Equal(t, 3, FetchConfig.MaxAttempts)
	assert.Equal(t, 5, StartupConfig.MaxAttempts)
	assert.LessOrEqual(t, FetchConfig.MaxDelay, StartupConfig.MaxDelay)
}
