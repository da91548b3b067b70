package rebuild

import (
	"sort"
	"strconv"
	"time"

	"github.com/flight-fares/fare-harvester/internal/preprocess"
)

// BucketDelta is the distance from the global mean that makes a route high or low.
const BucketDelta = 0.05

// Bucket sheet names.
const (
	BucketHigh = "高"
	BucketAvg  = "均"
	BucketLow  = "低"
)

// stat accumulates a count and a rate sum.
type stat struct {
	count int
	sum   float64
}

func (s *stat) add(rate float64) {
	s.count++
	s.sum += rate
}

func (s stat) mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// route is a directed city pair.
type route struct {
	From string
	To   string
}

func (r route) String() string {
	return r.From + "-" + r.To
}

// dateSet holds distinct calendar dates.
type dateSet map[time.Time]struct{}

func (d dateSet) add(t time.Time) {
	d[t] = struct{}{}
}

func sortedRoutes[V any](m map[route]V) []route {
	out := make([]route, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func sortedKeys[K int | string](m map[K]struct{}) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedDates[V any](m map[time.Time]V) []time.Time {
	out := make([]time.Time, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// bucketOf places a route mean relative to the global mean.
func bucketOf(mean, global float64) string {
	switch d := preprocess.Round2(mean - global); {
	case d >= BucketDelta:
		return BucketHigh
	case d <= -BucketDelta:
		return BucketLow
	default:
		return BucketAvg
	}
}

// meanOf returns the plain mean of xs.
func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ratio returns a/b rounded to two decimals, 0 when b is 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return preprocess.Round2(a / b)
}

func hourLabels(hours []int) []string {
	out := make([]string, len(hours))
	for i, h := range hours {
		out[i] = strconv.Itoa(h) + "时"
	}
	return out
}

func withRouteColumn(first string, rest []string) []string {
	return append([]string{first}, rest...)
}
