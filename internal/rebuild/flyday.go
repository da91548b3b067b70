package rebuild

import (
	"time"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// flydayView keeps, per route and flight date, the rates observed at each
// lead day.
type flydayView struct {
	routes map[route]map[time.Time]map[int][]float64
}

func newFlydayView() *flydayView {
	return &flydayView{routes: map[route]map[time.Time]map[int][]float64{}}
}

func (v *flydayView) add(o observation) {
	dates := v.routes[o.route]
	if dates == nil {
		dates = map[time.Time]map[int][]float64{}
		v.routes[o.route] = dates
	}
	leads := dates[o.rec.FlightDate]
	if leads == nil {
		leads = map[int][]float64{}
		dates[o.rec.FlightDate] = leads
	}
	leads[o.lead] = append(leads[o.lead], o.rec.Rate)
}

// materialize writes one sheet per route: a row per flight date and a column
// per lead day holding the mean rate.
func (v *flydayView) materialize() *sink.Workbook {
	wb := &sink.Workbook{}
	for _, r := range sortedRoutes(v.routes) {
		dates := v.routes[r]

		leadSet := map[int]struct{}{}
		for _, leads := range dates {
			for l := range leads {
				leadSet[l] = struct{}{}
			}
		}
		leads := sortedKeys(leadSet)

		s := wb.NewSheet(r.String(), withRouteColumn("日期", leadLabels(leads))...)
		for _, d := range sortedDates(dates) {
			row := []any{d.Format(domain.DateLayout)}
			for _, l := range leads {
				if rates, ok := dates[d][l]; ok {
					row = append(row, preprocess.Round2(meanOf(rates)))
				} else {
					row = append(row, nil)
				}
			}
			s.AddRow(row...)
		}
	}
	return wb
}
