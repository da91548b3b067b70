// Package domain contains the core entities and rules of the fare harvester.
// These types are shared by the collector, the preprocessor and the rebuilder,
// and carry no knowledge of the upstream itinerary endpoints.
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the ISO layout used for flight dates, collection dates and folder names.
const DateLayout = "2006-01-02"

// CraftSize is the aircraft size class of a flight.
type CraftSize string

// Aircraft size classes.
const (
	CraftSmall  CraftSize = "S"
	CraftMedium CraftSize = "M"
	CraftLarge  CraftSize = "L"
)

// craftAliases maps upstream descriptors (with the trailing 型 already trimmed) to size classes.
var craftAliases = map[string]CraftSize{
	"小": CraftSmall,
	"S": CraftSmall,
	"中": CraftMedium,
	"M": CraftMedium,
	"大": CraftLarge,
	"L": CraftLarge,
}

// ParseCraftSize converts a craft descriptor such as "中型", "大" or "L" into a CraftSize.
// Empty or unknown descriptors fall back to CraftMedium.
func ParseCraftSize(desc string) CraftSize {
	desc = strings.TrimSuffix(strings.TrimSpace(desc), "型")
	if size, ok := craftAliases[strings.ToUpper(desc)]; ok {
		return size
	}
	if size, ok := craftAliases[desc]; ok {
		return size
	}
	return CraftMedium
}

// IsLarge reports whether the craft counts as large-bodied for preprocessing.
// Medium and large crafts both count.
func (c CraftSize) IsLarge() bool {
	return c == CraftMedium || c == CraftLarge
}

// weekdayNames are the localized weekday names written into per-pair workbooks.
var weekdayNames = [7]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// WeekdayName returns the localized weekday name of t.
func WeekdayName(t time.Time) string {
	return weekdayNames[t.Weekday()]
}

// parseWeekday resolves localized names, English names and 1-7 encodings (Monday = 1).
func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for i, n := range weekdayNames {
		if n == name || strings.Replace(n, "星期", "周", 1) == name {
			return time.Weekday(i), true
		}
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) || strings.EqualFold(d.String()[:3], name) {
			return d, true
		}
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '7' {
		return time.Weekday(int(name[0]-'0') % 7), true
	}
	return 0, false
}

// WeekdayClass maps a weekday to its demand class: Saturday and Sunday are 1,
// Monday and Friday are 0.5, the remaining days are 0.
func WeekdayClass(name string) (float64, error) {
	d, ok := parseWeekday(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidRecord, name)
	}
	switch d {
	case time.Saturday, time.Sunday:
		return 1, nil
	case time.Monday, time.Friday:
		return 0.5, nil
	default:
		return 0, nil
	}
}

// clockRegex matches HH:MM clock times.
var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsClock reports whether s is a valid HH:MM clock time.
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// FlightRecord is the canonical row emitted by the collector for one direct,
// non-codeshare itinerary.
type FlightRecord struct {
	// FlightDate is the target departure date (UTC midnight)
	FlightDate time.Time

	// Weekday is the localized weekday name of FlightDate
	Weekday string

	// Airline is the operating airline name
	Airline string

	// Craft is the aircraft size class
	Craft CraftSize

	// DepName and ArrName are airport display names (city, or city plus airport suffix)
	DepName string
	ArrName string

	// DepTime and ArrTime are HH:MM clock times
	DepTime string
	ArrTime string

	// Price is the ticket price in whole currency units
	Price int

	// Rate is the price as a fraction of the published full fare
	Rate float64
}

// Validate checks the record invariants: positive price and rate, valid clock times
// and non-empty airport names.
func (r FlightRecord) Validate() error {
	switch {
	case r.FlightDate.IsZero():
		return fmt.Errorf("%w: missing flight date", ErrInvalidRecord)
	case r.Price <= 0:
		return fmt.Errorf("%w: price must be positive, got %d", ErrInvalidRecord, r.Price)
	case r.Rate <= 0:
		return fmt.Errorf("%w: rate must be positive, got %v", ErrInvalidRecord, r.Rate)
	case !IsClock(r.DepTime):
		return fmt.Errorf("%w: invalid departure time %q", ErrInvalidRecord, r.DepTime)
	case !IsClock(r.ArrTime):
		return fmt.Errorf("%w: invalid arrival time %q", ErrInvalidRecord, r.ArrTime)
	case r.DepName == "" || r.ArrName == "":
		return fmt.Errorf("%w: missing airport name", ErrInvalidRecord)
	}
	return nil
}

// DepHour returns the integer departure hour.
func (r FlightRecord) DepHour() int {
	if len(r.DepTime) < 2 {
		return 0
	}
	return int(r.DepTime[0]-'0')*10 + int(r.DepTime[1]-'0')
}

// RecordColumns are the localized headers of a per-pair workbook.
var RecordColumns = []string{"日期", "星期", "航空公司", "机型", "出发机场", "到达机场", "出发时间", "到达时间", "价格", "折扣"}

// Row returns the record as workbook cell values in RecordColumns order.
func (r FlightRecord) Row() []any {
	return []any{
		r.FlightDate.Format(DateLayout),
		r.Weekday,
		r.Airline,
		string(r.Craft),
		r.DepName,
		r.ArrName,
		r.DepTime,
		r.ArrTime,
		r.Price,
		r.Rate,
	}
}
