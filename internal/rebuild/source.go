package rebuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// LoadStats counts what a load fed into the views.
type LoadStats struct {
	Files   int
	Records int
	BadRows int
}

func (s *LoadStats) merge(o LoadStats) {
	s.Files += o.Files
	s.Records += o.Records
	s.BadRows += o.BadRows
}

// BatchSource streams stored batches, such as the SQLite record store.
type BatchSource interface {
	Load(ctx context.Context, fn func(domain.Batch) error) error
}

// isPairWorkbook reports whether name is a raw per-pair workbook.
func isPairWorkbook(name string) bool {
	if strings.HasPrefix(name, ".") || domain.IsPreprocFile(name) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".csv"
}

// LoadDir appends every raw per-pair workbook below dir. The collection date
// is the name of the folder holding the workbook; workbooks outside a dated
// folder are ignored.
func (r *Rebuilder) LoadDir(ctx context.Context, fs afero.Fs, dir string) (LoadStats, error) {
	var stats LoadStats
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || !isPairWorkbook(info.Name()) {
			return nil
		}
		collect, err := timeutil.ParseDate(filepath.Base(filepath.Dir(path)))
		if err != nil {
			r.log.Debug().Str("file", path).Msg("Skipping workbook outside a dated folder")
			return nil
		}

		records, bad, err := sink.ReadRecords(fs, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if bad > 0 {
			r.log.Warn().Str("file", path).Int("bad_rows", bad).Msg("Skipped unreadable rows")
		}
		r.Append(collect, records)
		stats.merge(LoadStats{Files: 1, Records: len(records), BadRows: bad})
		return nil
	})
	return stats, err
}

// LoadArchive extracts a zip archive below tmpDir and appends its workbooks.
// The extracted files are tracked until Unlink removes them.
func (r *Rebuilder) LoadArchive(ctx context.Context, fs afero.Fs, zipPath, tmpDir string) (LoadStats, error) {
	written, err := sink.Extract(fs, zipPath, tmpDir)
	r.mu.Lock()
	r.extracted = append(r.extracted, written...)
	r.mu.Unlock()
	if err != nil {
		return LoadStats{}, fmt.Errorf("extract %s: %w", zipPath, err)
	}
	return r.LoadDir(ctx, fs, tmpDir)
}

// Extracted returns the files extracted from archives and not yet unlinked.
func (r *Rebuilder) Extracted() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.extracted...)
}

// Unlink removes the files extracted by LoadArchive.
func (r *Rebuilder) Unlink(fs afero.Fs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := sink.Remove(fs, r.extracted); err != nil {
		return err
	}
	r.extracted = nil
	return nil
}

// LoadStore appends every batch of a record store.
func (r *Rebuilder) LoadStore(ctx context.Context, src BatchSource) (LoadStats, error) {
	var stats LoadStats
	err := src.Load(ctx, func(b domain.Batch) error {
		r.AppendBatch(b)
		stats.merge(LoadStats{Files: 1, Records: len(b.Records)})
		return nil
	})
	return stats, err
}

// Load appends input, which is a folder, a zip archive, or, when src is set
// and input is "store", the record store. Zip archives are extracted below
// tmpDir.
func (r *Rebuilder) Load(ctx context.Context, fs afero.Fs, input, tmpDir string, src BatchSource) (LoadStats, error) {
	switch {
	case input == StoreInput:
		if src == nil {
			return LoadStats{}, fmt.Errorf("%w: no record store configured", domain.ErrInvalidConfig)
		}
		return r.LoadStore(ctx, src)
	case strings.EqualFold(filepath.Ext(input), ".zip"):
		return r.LoadArchive(ctx, fs, input, tmpDir)
	default:
		return r.LoadDir(ctx, fs, input)
	}
}

// StoreInput selects the record store as rebuild input.
const StoreInput = "store"

// Sink forwards batches to the wrapped sink and feeds each written batch
// into the rebuilder, so views can be built from a live run.
type Sink struct {
	domain.BatchSink
	r *Rebuilder
}

// NewSink wraps next.
func NewSink(next domain.BatchSink, r *Rebuilder) *Sink {
	return &Sink{BatchSink: next, r: r}
}

// Write writes the batch and appends it once it is stored.
func (s *Sink) Write(ctx context.Context, b domain.Batch) error {
	if err := s.BatchSink.Write(ctx, b); err != nil {
		return err
	}
	s.r.AppendBatch(b)
	return nil
}
