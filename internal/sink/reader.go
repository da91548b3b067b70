package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// ReadRows returns the rows of the first sheet of a workbook or of a CSV
// file, header included.
func ReadRows(fs afero.Fs, path string) ([][]string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if formatOf(path) == FormatCSV {
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return rows, nil
	}
	return readXLSX(file, path)
}

func readXLSX(r io.Reader, path string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadRecords reads a per-pair workbook. The header row, the trailing average
// row and blank rows are skipped; rows that do not parse are counted and
// skipped.
func ReadRecords(fs afero.Fs, path string) ([]domain.FlightRecord, int, error) {
	rows, err := ReadRows(fs, path)
	if err != nil {
		return nil, 0, err
	}

	records := make([]domain.FlightRecord, 0, len(rows))
	bad := 0
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" || row[0] == AverageLabel {
			continue
		}
		rec, err := ParseRecord(row)
		if err != nil {
			bad++
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}

// ParseRecord parses one per-pair workbook row in RecordColumns order.
func ParseRecord(row []string) (domain.FlightRecord, error) {
	if len(row) < len(domain.RecordColumns) {
		return domain.FlightRecord{}, fmt.Errorf("%w: %d columns", domain.ErrInvalidRecord, len(row))
	}
	date, err := timeutil.ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return domain.FlightRecord{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[8]), 64)
	if err != nil {
		return domain.FlightRecord{}, fmt.Errorf("%w: price %q", domain.ErrInvalidRecord, row[8])
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(row[9]), 64)
	if err != nil {
		return domain.FlightRecord{}, fmt.Errorf("%w: rate %q", domain.ErrInvalidRecord, row[9])
	}

	rec := domain.FlightRecord{
		FlightDate: date,
		Weekday:    strings.TrimSpace(row[1]),
		Airline:    strings.TrimSpace(row[2]),
		Craft:      domain.ParseCraftSize(row[3]),
		DepName:    strings.TrimSpace(row[4]),
		ArrName:    strings.TrimSpace(row[5]),
		DepTime:    strings.TrimSpace(row[6]),
		ArrTime:    strings.TrimSpace(row[7]),
		Price:      int(price + 0.5),
		Rate:       rate,
	}
	if err := rec.Validate(); err != nil {
		return domain.FlightRecord{}, err
	}
	return rec, nil
}
