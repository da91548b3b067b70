package domain

// HolidayFlags are the four holiday indicators attached to a preprocessed row.
type HolidayFlags struct {
	SpringFestival bool
	InHoliday      bool
	BeforeHoliday  bool
	AfterHoliday   bool
}

// PlaceFactors are the reference-data factors of one end of a route.
type PlaceFactors struct {
	AirportFactor float64
	CityClass     float64
	CityLocation  float64
	Tourism       bool
}

// PreprocessedRecord is a feature-annotated flight row ready for modelling.
type PreprocessedRecord struct {
	Index        int
	LeadDay      int
	WeekdayClass float64
	DayDensity   int
	Holiday      HolidayFlags
	CraftLarge   bool
	FullService  bool
	Competition  int
	From         PlaceFactors
	To           PlaceFactors
	Rate         float64
	DepHour      float64
	HourDensity  int
	HourRatio    float64

	// FlightDate is kept for per-date aggregates and is not written out.
	FlightDate string
}

// PreprocessedColumns are the 23 headers of a preprocessed workbook.
var PreprocessedColumns = []string{
	"index", "lead_day", "weekday_class", "day_density",
	"spring_festival", "in_holiday", "before_holiday", "after_holiday",
	"craft_large", "full_service", "competition",
	"from_factor", "from_loc", "from_class", "from_tourism",
	"to_factor", "to_loc", "to_class", "to_tourism",
	"rate", "dep_hour", "hour_density", "hour_ratio",
}

// Row returns the record as workbook cell values in PreprocessedColumns order.
// Booleans are written as 0/1.
func (p PreprocessedRecord) Row() []any {
	return []any{
		p.Index, p.LeadDay, p.WeekdayClass, p.DayDensity,
		b2i(p.Holiday.SpringFestival), b2i(p.Holiday.InHoliday), b2i(p.Holiday.BeforeHoliday), b2i(p.Holiday.AfterHoliday),
		b2i(p.CraftLarge), b2i(p.FullService), p.Competition,
		p.From.AirportFactor, p.From.CityLocation, p.From.CityClass, b2i(p.From.Tourism),
		p.To.AirportFactor, p.To.CityLocation, p.To.CityClass, b2i(p.To.Tourism),
		p.Rate, p.DepHour, p.HourDensity, p.HourRatio,
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
