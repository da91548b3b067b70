package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// DefaultRenderInterval is the progress line refresh cadence.
const DefaultRenderInterval = 250 * time.Millisecond

// Snapshot is a point-in-time view of the progress counters.
type Snapshot struct {
	Done    int           `json:"done"`
	Total   int           `json:"total"`
	Percent float64       `json:"percent"`
	ETA     time.Duration `json:"eta"`
}

// Tracker counts completed fetch units and keeps a running average of the
// time between completions. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	clock timeutil.Clock
	total int
	done  int
	n     int
	avg   time.Duration
	last  time.Time
}

// NewTracker creates a tracker for total units.
func NewTracker(total int, clock timeutil.Clock) *Tracker {
	if clock == nil {
		clock = timeutil.NewRealClock()
	}
	return &Tracker{clock: clock, total: total, last: clock.Now()}
}

// Done records one completed unit and folds its elapsed time into the
// running average: avg = (avg·(N−1) + elapsed)/N.
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	elapsed := now.Sub(t.last)
	t.last = now

	t.done++
	t.n++
	t.avg = (t.avg*time.Duration(t.n-1) + elapsed) / time.Duration(t.n)
}

// Drop removes n units from the total, for pairs that are resumed or aborted.
func (t *Tracker) Drop(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total -= n
	if t.total < t.done {
		t.total = t.done
	}
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{Done: t.done, Total: t.total}
	if t.total > 0 {
		s.Percent = float64(t.done) * 100 / float64(t.total)
	} else {
		s.Percent = 100
	}
	s.ETA = t.avg * time.Duration(t.total-t.done)
	return s
}

// Line formats a snapshot as a single progress line.
func (s Snapshot) Line() string {
	eta := "--"
	if s.Done > 0 {
		eta = s.ETA.Round(time.Second).String()
	}
	return fmt.Sprintf("%5.1f%% %s/%s ETA %s", s.Percent, humanize.Comma(int64(s.Done)), humanize.Comma(int64(s.Total)), eta)
}

// Render rewrites the progress line on w every interval until ctx ends, then
// writes the final line and a newline.
func (t *Tracker) Render(ctx context.Context, w io.Writer, interval time.Duration) {
	render(ctx, w, interval, t.Snapshot)
}

func render(ctx context.Context, w io.Writer, interval time.Duration, snapshot func() Snapshot) {
	if interval <= 0 {
		interval = DefaultRenderInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	width := 0
	draw := func() {
		line := snapshot().Line()
		pad := ""
		if n := width - len(line); n > 0 {
			pad = strings.Repeat(" ", n)
		}
		width = len(line)
		_, _ = fmt.Fprintf(w, "\r%s%s", line, pad)
	}

	for {
		select {
		case <-ctx.Done():
			draw()
			_, _ = fmt.Fprintln(w)
			return
		case <-ticker.C:
			draw()
		}
	}
}
