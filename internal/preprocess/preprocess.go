// Package preprocess turns one per-pair batch of flight records into the
// feature-annotated table used for modelling.
package preprocess

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// fullServiceCarriers are the nine mainland full-service airlines.
var fullServiceCarriers = map[string]bool{
	"中国国航": true,
	"东方航空": true,
	"南方航空": true,
	"海南航空": true,
	"厦门航空": true,
	"深圳航空": true,
	"四川航空": true,
	"山东航空": true,
	"上海航空": true,
}

// carrierAliases maps long or short airline names to their canonical form.
var carrierAliases = map[string]string{
	"中国国际航空": "中国国航",
	"国航":     "中国国航",
	"东航":     "东方航空",
	"南航":     "南方航空",
	"海航":     "海南航空",
	"厦航":     "厦门航空",
	"深航":     "深圳航空",
	"川航":     "四川航空",
	"山航":     "山东航空",
	"上航":     "上海航空",
}

// IsFullService reports whether airline is one of the nine full-service carriers.
func IsFullService(airline string) bool {
	airline = strings.TrimSpace(airline)
	if alias, ok := carrierAliases[airline]; ok {
		airline = alias
	}
	return fullServiceCarriers[airline]
}

// Places resolves an airport display name into its reference factors.
type Places interface {
	Places(place string) domain.PlaceFactors
}

// Preprocessor annotates record batches. It holds no per-file state.
type Preprocessor struct {
	places   Places
	holidays *HolidayTable
}

// New creates a Preprocessor. A nil holiday table uses the built-in one.
func New(places Places, holidays *HolidayTable) *Preprocessor {
	if holidays == nil {
		holidays = DefaultHolidayTable()
	}
	return &Preprocessor{places: places, holidays: holidays}
}

// DepHour converts an HH:MM clock time to hour + round(minute/60, 2).
func DepHour(clock string) (float64, error) {
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("%w: invalid clock %q", domain.ErrInvalidRecord, clock)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid clock %q", domain.ErrInvalidRecord, clock)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid clock %q", domain.ErrInvalidRecord, clock)
	}
	frac := decimal.NewFromInt(int64(minute)).Div(decimal.NewFromInt(60)).Round(2)
	return decimal.NewFromInt(int64(hour)).Add(frac).InexactFloat64(), nil
}

// Round2 rounds x to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Process annotates the records of one file collected on collectDate. Rows
// come back stably sorted by departure hour; Index keeps the input position.
func (p *Preprocessor) Process(collectDate time.Time, records []domain.FlightRecord) ([]domain.PreprocessedRecord, error) {
	collectDate = timeutil.Date(collectDate)

	airlinesByDate := map[string]map[string]struct{}{}
	countByDate := map[string]int{}
	for _, r := range records {
		date := r.FlightDate.Format(domain.DateLayout)
		if airlinesByDate[date] == nil {
			airlinesByDate[date] = map[string]struct{}{}
		}
		airlinesByDate[date][r.Airline] = struct{}{}
		countByDate[date]++
	}

	out := make([]domain.PreprocessedRecord, 0, len(records))
	for i, r := range records {
		date := r.FlightDate.Format(domain.DateLayout)

		weekday := r.Weekday
		if weekday == "" {
			weekday = domain.WeekdayName(r.FlightDate)
		}
		class, err := domain.WeekdayClass(weekday)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		flags, err := p.holidays.Flags(r.FlightDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		hour, err := DepHour(r.DepTime)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		out = append(out, domain.PreprocessedRecord{
			Index:        i,
			LeadDay:      timeutil.DaysBetween(collectDate, r.FlightDate),
			WeekdayClass: class,
			DayDensity:   countByDate[date],
			Holiday:      flags,
			CraftLarge:   r.Craft.IsLarge(),
			FullService:  IsFullService(r.Airline),
			Competition:  len(airlinesByDate[date]),
			From:         p.places.Places(r.DepName),
			To:           p.places.Places(r.ArrName),
			Rate:         r.Rate,
			DepHour:      hour,
			FlightDate:   date,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DepHour < out[j].DepHour })

	hourDensity := map[string]map[int]int{}
	type bucket struct {
		count int
		sum   float64
	}
	buckets := map[int]*bucket{}
	total := 0.0
	for _, row := range out {
		h := int(row.DepHour)
		if hourDensity[row.FlightDate] == nil {
			hourDensity[row.FlightDate] = map[int]int{}
		}
		hourDensity[row.FlightDate][h]++
		if buckets[h] == nil {
			buckets[h] = &bucket{}
		}
		buckets[h].count++
		buckets[h].sum += row.Rate
		total += row.Rate
	}

	if len(out) == 0 {
		return out, nil
	}
	overall := total / float64(len(out))
	for i := range out {
		h := int(out[i].DepHour)
		out[i].HourDensity = hourDensity[out[i].FlightDate][h]
		if overall > 0 {
			b := buckets[h]
			out[i].HourRatio = Round2(b.sum / float64(b.count) / overall)
		}
	}
	return out, nil
}
