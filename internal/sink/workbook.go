// Package sink persists per-pair record workbooks, analytic view workbooks,
// zip archives and the SQLite record store.
package sink

import (
	"strconv"
	"strings"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// AverageLabel heads the trailing average row of formatted sheets.
const AverageLabel = "平均"

// Formula is a cell computed by the spreadsheet. Expr may contain "{r}", which
// is replaced by the 1-based row number of the cell. Value is written instead
// of the formula in values-only and CSV output.
type Formula struct {
	Expr  string
	Value float64
}

// Resolve returns the formula text for row r.
func (f Formula) Resolve(r int) string {
	return strings.ReplaceAll(f.Expr, "{r}", strconv.Itoa(r))
}

// Sheet is one table: a header row followed by value rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any

	// Average appends an AVERAGE formula row under numeric columns when formatted
	Average bool
}

// AddRow appends a row.
func (s *Sheet) AddRow(cells ...any) {
	s.Rows = append(s.Rows, cells)
}

// numericColumn reports whether every row holds a number in column c.
func (s *Sheet) numericColumn(c int) bool {
	if len(s.Rows) == 0 {
		return false
	}
	for _, row := range s.Rows {
		if c >= len(row) {
			return false
		}
		switch row[c].(type) {
		case int, int64, float64, Formula:
		default:
			return false
		}
	}
	return true
}

// Workbook is an ordered list of sheets.
type Workbook struct {
	Sheets []*Sheet
}

// NewSheet appends an empty sheet and returns it.
func (w *Workbook) NewSheet(name string, header ...string) *Sheet {
	s := &Sheet{Name: name, Header: header}
	w.Sheets = append(w.Sheets, s)
	return s
}

// Sheet returns the sheet named name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Ext returns the file extension of a format, with the dot.
func Ext(format string) string {
	if format == FormatCSV {
		return ".csv"
	}
	return ".xlsx"
}

// SheetName makes name a valid worksheet name: no reserved characters and
// at most 31 runes.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		name = "Sheet"
	}
	return name
}

// cellValue returns the plain value of a cell for values-only output.
func cellValue(v any) any {
	if f, ok := v.(Formula); ok {
		return f.Value
	}
	return v
}

// cellString renders a cell for CSV output.
func cellString(v any) string {
	switch x := cellValue(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}
