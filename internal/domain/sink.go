package domain

import (
	"context"
	"time"
)

// BatchSink persists per-pair batches and the newly ignored pairs of a run.
type BatchSink interface {
	// Exists reports whether the batch's per-pair file was already written.
	Exists(b Batch) (bool, error)

	// Write persists one batch atomically: either the whole file exists or none of it.
	Write(ctx context.Context, b Batch) error

	// WriteIgnored writes the pairs dropped by the early-abort rule.
	WriteIgnored(firstDate, collectDate time.Time, pairs []Pair) error
}
