package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

// Writer writes workbooks to a filesystem in one format.
type Writer struct {
	fs         afero.Fs
	format     string
	valuesOnly bool
}

// NewWriter creates a Writer. An empty format means xlsx.
func NewWriter(fs afero.Fs, format string, valuesOnly bool) *Writer {
	if format == "" {
		format = FormatXLSX
	}
	return &Writer{fs: fs, format: format, valuesOnly: valuesOnly}
}

// Format returns the output format.
func (w *Writer) Format() string {
	return w.format
}

// Write stores wb under base, a path without extension, and returns the
// written file paths. Every file is written to a temporary name and renamed,
// so readers never see a partial workbook.
func (w *Writer) Write(base string, wb *Workbook) ([]string, error) {
	if err := w.fs.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(base), err)
	}

	if w.format == FormatCSV {
		return w.writeCSV(base, wb)
	}

	path := base + ".xlsx"
	if err := w.atomic(path, func(out io.Writer) error {
		return w.writeXLSX(out, wb)
	}); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (w *Writer) atomic(path string, fill func(io.Writer) error) error {
	return writeAtomic(w.fs, path, fill)
}

// writeAtomic writes path through a temporary file in the same directory.
func writeAtomic(fs afero.Fs, path string, fill func(io.Writer) error) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	name := tmp.Name()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(name)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := fs.Rename(name, path); err != nil {
		_ = fs.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// writeCSV writes one file per sheet: base.csv for a single sheet,
// base_<sheet>.csv otherwise.
func (w *Writer) writeCSV(base string, wb *Workbook) ([]string, error) {
	paths := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		path := base + ".csv"
		if len(wb.Sheets) > 1 {
			path = base + "_" + SheetName(s.Name) + ".csv"
		}
		err := w.atomic(path, func(out io.Writer) error {
			cw := csv.NewWriter(out)
			if err := cw.Write(s.Header); err != nil {
				return err
			}
			for _, row := range s.Rows {
				record := make([]string, len(row))
				for i, v := range row {
					record[i] = cellString(v)
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
			cw.Flush()
			return cw.Error()
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) writeXLSX(out io.Writer, wb *Workbook) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, numberStyle := 0, 0
	if !w.valuesOnly {
		var err error
		headerStyle, err = f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return err
		}
		numberStyle, err = f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return err
		}
	}

	used := map[string]bool{}
	for i, s := range wb.Sheets {
		name := SheetName(s.Name)
		for n := 2; used[name]; n++ {
			name = SheetName(fmt.Sprintf("%s_%d", s.Name, n))
		}
		used[name] = true

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := w.fillSheet(f, name, s, headerStyle, numberStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	if len(wb.Sheets) == 0 {
		if err := f.SetSheetRow("Sheet1", "A1", &[]any{}); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(out)
	return err
}

func (w *Writer) fillSheet(f *excelize.File, name string, s *Sheet, headerStyle, numberStyle int) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for r, row := range s.Rows {
		rowNum := r + 2
		values := make([]any, len(row))
		for c, v := range row {
			values[c] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
		if w.valuesOnly {
			continue
		}
		for c, v := range row {
			if formula, ok := v.(Formula); ok {
				cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
				if err != nil {
					return err
				}
				if err := f.SetCellFormula(name, cell, formula.Resolve(rowNum)); err != nil {
					return err
				}
			}
		}
	}

	if w.valuesOnly {
		return nil
	}
	return w.applyFormatting(f, name, s, headerStyle, numberStyle)
}

// applyFormatting applies column widths, header style, number formats, the frozen
// header row and the trailing average row.
func (w *Writer) applyFormatting(f *excelize.File, name string, s *Sheet, headerStyle, numberStyle int) error {
	cols := len(s.Header)
	if cols == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for c := 1; c <= cols; c++ {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, columnWidth(s, c-1)); err != nil {
			return err
		}
		if len(s.Rows) > 0 && s.numericColumn(c-1) {
			if err := f.SetCellStyle(name, col+"2", fmt.Sprintf("%s%d", col, len(s.Rows)+1), numberStyle); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if !s.Average || len(s.Rows) == 0 {
		return nil
	}
	avgRow := len(s.Rows) + 2
	if err := f.SetCellValue(name, fmt.Sprintf("A%d", avgRow), AverageLabel); err != nil {
		return err
	}
	for c := 1; c < cols; c++ {
		if !s.numericColumn(c) {
			continue
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		cell := fmt.Sprintf("%s%d", col, avgRow)
		if err := f.SetCellFormula(name, cell, fmt.Sprintf("AVERAGE(%s2:%s%d)", col, col, avgRow-1)); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, numberStyle); err != nil {
			return err
		}
	}
	return nil
}

// columnWidth sizes a column to its widest cell, counting wide runes twice.
func columnWidth(s *Sheet, c int) float64 {
	width := displayWidth(s.Header[c])
	for _, row := range s.Rows {
		if c < len(row) {
			if n := displayWidth(cellString(row[c])); n > width {
				width = n
			}
		}
	}
	return float64(min(max(width+2, 8), 60))
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r > 0x2E80 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// formatOf returns the output format implied by a file name.
func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}
