package preprocess

import (
	"fmt"
	"sort"
	"time"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// Holiday window constants.
const (
	// springFestivalDays is the holiday length implied by a zero-duration anchor
	springFestivalDays = 8

	// adjacentDays bounds the before and after windows
	adjacentDays = 7
)

// Anchor is one holiday occurrence. A zero Duration marks the Spring Festival.
type Anchor struct {
	Name     string
	Date     time.Time
	Duration int
}

// IsSpringFestival reports whether the anchor uses the Spring Festival sentinel.
func (a Anchor) IsSpringFestival() bool {
	return a.Duration == 0
}

func (a Anchor) length() int {
	if a.IsSpringFestival() {
		return springFestivalDays
	}
	return a.Duration
}

// fixedHoliday is a holiday with a default month, day and duration.
type fixedHoliday struct {
	name     string
	month    time.Month
	day      int
	duration int
}

var fixedHolidays = []fixedHoliday{
	{"元旦", time.January, 1, 3},
	{"清明", time.April, 4, 3},
	{"劳动节", time.May, 1, 5},
	{"端午", time.June, 10, 3},
	{"中秋", time.September, 20, 3},
	{"国庆", time.October, 1, 7},
}

// springFestivalEves are the lunar new year eves, the first day of the break.
var springFestivalEves = map[int]string{
	2019: "2019-02-04",
	2020: "2020-01-24",
	2021: "2021-02-11",
	2022: "2022-01-31",
	2023: "2023-01-21",
	2024: "2024-02-09",
	2025: "2025-01-28",
	2026: "2026-02-16",
	2027: "2027-02-05",
	2028: "2028-01-25",
	2029: "2029-02-12",
	2030: "2030-02-02",
}

// lunarDates override the default dates of the lunar holidays.
var lunarDates = map[string]map[int]string{
	"端午": {
		2019: "2019-06-07", 2020: "2020-06-25", 2021: "2021-06-14", 2022: "2022-06-03",
		2023: "2023-06-22", 2024: "2024-06-10", 2025: "2025-05-31", 2026: "2026-06-19",
		2027: "2027-06-09", 2028: "2028-05-28", 2029: "2029-06-16", 2030: "2030-06-05",
	},
	"中秋": {
		2019: "2019-09-13", 2020: "2020-10-01", 2021: "2021-09-21", 2022: "2022-09-10",
		2023: "2023-09-29", 2024: "2024-09-17", 2025: "2025-10-06", 2026: "2026-09-25",
		2027: "2027-09-15", 2028: "2028-10-03", 2029: "2029-09-22", 2030: "2030-09-12",
	},
}

// HolidayTable is a year-indexed list of holiday anchors.
type HolidayTable struct {
	years map[int][]Anchor
}

// NewHolidayTable creates an empty table.
func NewHolidayTable() *HolidayTable {
	return &HolidayTable{years: map[int][]Anchor{}}
}

// DefaultHolidayTable returns the built-in table: the six standard holidays
// for every year that has a Spring Festival entry, plus the Spring Festival.
func DefaultHolidayTable() *HolidayTable {
	t := NewHolidayTable()
	for year, eve := range springFestivalEves {
		d, err := timeutil.ParseDate(eve)
		if err != nil {
			panic(err)
		}
		t.Add(Anchor{Name: "春节", Date: d, Duration: 0})

		for _, h := range fixedHolidays {
			date := time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC)
			if s, ok := lunarDates[h.name][year]; ok {
				if d, err := timeutil.ParseDate(s); err == nil {
					date = d
				}
			}
			t.Add(Anchor{Name: h.name, Date: date, Duration: h.duration})
		}
	}
	return t
}

// Add appends an anchor under the year of its date.
func (t *HolidayTable) Add(a Anchor) {
	a.Date = timeutil.Date(a.Date)
	year := a.Date.Year()
	t.years[year] = append(t.years[year], a)
	sort.SliceStable(t.years[year], func(i, j int) bool {
		return t.years[year][i].Date.Before(t.years[year][j].Date)
	})
}

// Years returns the years covered by the table.
func (t *HolidayTable) Years() []int {
	years := make([]int, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func (t *HolidayTable) hasSpringFestival(year int) bool {
	for _, a := range t.years[year] {
		if a.IsSpringFestival() {
			return true
		}
	}
	return false
}

// Flags computes the holiday flags of a flight date. Anchors of the adjacent
// years are consulted too, so late December sees the next New Year. The
// date's own year must carry a Spring Festival entry.
func (t *HolidayTable) Flags(date time.Time) (domain.HolidayFlags, error) {
	date = timeutil.Date(date)
	year := date.Year()
	if !t.hasSpringFestival(year) {
		return domain.HolidayFlags{}, fmt.Errorf("%w: year %d", domain.ErrHolidayTableIncomplete, year)
	}

	var flags domain.HolidayFlags
	for y := year - 1; y <= year+1; y++ {
		for _, a := range t.years[y] {
			delta := timeutil.DaysBetween(a.Date, date)
			length := a.length()

			before := delta >= -adjacentDays && delta < 0
			in := delta >= 0 && delta < length
			after := delta-length >= 0 && delta-length <= adjacentDays

			flags.BeforeHoliday = flags.BeforeHoliday || before
			flags.InHoliday = flags.InHoliday || in
			flags.AfterHoliday = flags.AfterHoliday || after
			if a.IsSpringFestival() && (before || in || after) {
				flags.SpringFestival = true
			}
		}
	}
	return flags, nil
}
