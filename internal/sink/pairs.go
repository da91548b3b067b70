package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
)

// IgnoredFileName is the side-channel file listing newly ignored pairs.
const IgnoredFileName = "ignored.txt"

// Preprocessor annotates the records of one batch.
type Preprocessor interface {
	Process(collectDate time.Time, records []domain.FlightRecord) ([]domain.PreprocessedRecord, error)
}

// RecordStore mirrors written batches.
type RecordStore interface {
	Save(ctx context.Context, b domain.Batch) error
}

// PairConfig contains the per-pair writer settings.
type PairConfig struct {
	// Dir is the output root; run folders are created below it
	Dir        string
	Format     string
	ValuesOnly bool

	// Preprocessor, when set, writes a preprocessed workbook next to each batch
	Preprocessor Preprocessor

	// Store, when set, mirrors each batch into the record store
	Store RecordStore
}

// PairWriter writes one workbook per pair under
// <dir>/<first_flight_date>/<collection_date>/. It implements domain.BatchSink.
type PairWriter struct {
	fs      afero.Fs
	dir     string
	writer  *Writer
	preproc Preprocessor
	store   RecordStore
	log     *logger.Logger
}

// NewPairWriter creates a PairWriter.
func NewPairWriter(fs afero.Fs, cfg PairConfig, log *logger.Logger) *PairWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &PairWriter{
		fs:      fs,
		dir:     cfg.Dir,
		writer:  NewWriter(fs, cfg.Format, cfg.ValuesOnly),
		preproc: cfg.Preprocessor,
		store:   cfg.Store,
		log:     log,
	}
}

// RunDir returns the folder of a run.
func (p *PairWriter) RunDir(firstDate, collectDate time.Time) string {
	return filepath.Join(p.dir, domain.RunFolder(firstDate, collectDate))
}

// Path returns the per-pair workbook path of a batch.
func (p *PairWriter) Path(b domain.Batch) string {
	return filepath.Join(p.RunDir(b.FirstDate, b.CollectDate), b.FileName()+Ext(p.writer.Format()))
}

// Exists reports whether the batch's workbook is already on disk.
func (p *PairWriter) Exists(b domain.Batch) (bool, error) {
	return afero.Exists(p.fs, p.Path(b))
}

// RecordSheet builds the per-pair sheet of a batch.
func RecordSheet(b domain.Batch) *Workbook {
	wb := &Workbook{}
	s := wb.NewSheet(b.FileName(), domain.RecordColumns...)
	s.Average = true
	for _, r := range b.Records {
		s.AddRow(r.Row()...)
	}
	return wb
}

// PreprocessedSheet builds the preprocessed sheet of a batch.
func PreprocessedSheet(name string, rows []domain.PreprocessedRecord) *Workbook {
	wb := &Workbook{}
	s := wb.NewSheet(name, domain.PreprocessedColumns...)
	for _, r := range rows {
		s.AddRow(r.Row()...)
	}
	return wb
}

// Write stores the batch workbook, then its preprocessed variant and the
// store mirror when configured. Cancellation before the workbook is written
// drops the batch. The workbook is only left on disk when its preprocessed
// variant was written too, so resume never skips a half-written pair.
func (p *PairWriter) Write(ctx context.Context, b domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var rows []domain.PreprocessedRecord
	if p.preproc != nil {
		var err error
		rows, err = p.preproc.Process(b.CollectDate, b.Records)
		if err != nil {
			return fmt.Errorf("preprocess %s: %w", b.FileName(), err)
		}
	}

	base := strings.TrimSuffix(p.Path(b), Ext(p.writer.Format()))
	written, err := p.writer.Write(base, RecordSheet(b))
	if err != nil {
		return err
	}

	if p.preproc != nil {
		if _, err := p.writer.Write(base+domain.PreprocSuffix, PreprocessedSheet(b.FileName(), rows)); err != nil {
			for _, path := range written {
				_ = p.fs.Remove(path)
			}
			return err
		}
	}

	if p.store != nil {
		if err := p.store.Save(ctx, b); err != nil {
			p.log.Warn().Err(err).Str("file", b.FileName()).Msg("Failed to mirror batch into record store")
		}
	}
	return nil
}

// WriteIgnored appends the pairs to the run's ignored.txt, one "A-B" per line.
func (p *PairWriter) WriteIgnored(firstDate, collectDate time.Time, pairs []domain.Pair) error {
	dir := p.RunDir(firstDate, collectDate)
	if err := p.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := p.fs.OpenFile(filepath.Join(dir, IgnoredFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var sb strings.Builder
	for _, pair := range pairs {
		sb.WriteString(pair.String())
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write %s: %w", IgnoredFileName, err)
	}
	return nil
}

// ReadIgnored reads the pairs listed in a run's ignored.txt.
func ReadIgnored(fs afero.Fs, runDir string) ([]domain.Pair, error) {
	data, err := afero.ReadFile(fs, filepath.Join(runDir, IgnoredFileName))
	if err != nil {
		return nil, err
	}
	var pairs []domain.Pair
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pair, err := domain.ParsePair(line)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

var _ domain.BatchSink = (*PairWriter)(nil)
