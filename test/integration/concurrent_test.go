package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statushttp "github.com/flight-fares/fare-harvester/internal/adapter/http"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/test/testutil"
)

// TestConcurrent_StatusPolledDuringRun polls the status API from several
// goroutines while the collector runs. Run with -race to catch unsynchronized
// counters.
func TestConcurrent_StatusPolledDuringRun(t *testing.T) {
	h := NewHarness(t, fullFetcher(4).WithDelay(5*time.Millisecond), Options{Concurrency: 4})
	api := NewStatusAPI(h)
	plan := h.Plan(t, testCities, 4, 3, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	codes := make(chan int, 1024)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				select {
				case codes <- api.Get("/api/v1/progress").Code:
				default:
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}

	summary := h.Run(t, plan)
	cancel()
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, code)
	}
	assert.Equal(t, 3, summary.FilesWritten)

	var progress statushttp.ProgressResponse
	resp := api.Get("/api/v1/progress")
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &progress)
	assert.Equal(t, plan.Units(), progress.Total)
	assert.Equal(t, progress.Total, progress.Done)
	assert.Equal(t, 100.0, progress.Percent)
	assert.Equal(t, 3, progress.FilesWritten)
}

// TestConcurrent_CancelDropsPendingBatches cancels a slow run and checks that
// no partial workbook reaches the output tree.
func TestConcurrent_CancelDropsPendingBatches(t *testing.T) {
	h := NewHarness(t, fullFetcher(4).WithDelay(200*time.Millisecond), Options{Concurrency: 2})
	plan := h.Plan(t, testCities, 5, 3, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := h.Collector.Run(ctx, plan)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.ExitFailure, domain.ExitCode(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	if ok, _ := afero.DirExists(h.Fs, OutDir); ok {
		assert.Empty(t, testutil.ListFiles(t, h.Fs, OutDir))
	}
}

// TestConcurrent_PairsRunInParallel checks that concurrency bounds the wall
// time rather than serializing pairs.
func TestConcurrent_PairsRunInParallel(t *testing.T) {
	delay := 30 * time.Millisecond
	h := NewHarness(t, fullFetcher(4).WithDelay(delay), Options{Concurrency: 16})
	plan := h.Plan(t, testCities, 2, 3, false)

	start := time.Now()
	summary := h.Run(t, plan)
	elapsed := time.Since(start)

	assert.Equal(t, 3, summary.FilesWritten)
	// 3 pairs × 2 days sequentially would take 6 delays
	assert.Less(t, elapsed, 5*delay)
}
