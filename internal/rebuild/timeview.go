package rebuild

import (
	"time"

	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// Time view sheet names; the bucket sheets use BucketHigh, BucketAvg and BucketLow.
const (
	SheetTimeDensity = "密度"
	SheetTimeDaily   = "日均比"
)

type timeRoute struct {
	hours map[int]map[time.Time]*stat
	total stat
	dates dateSet
}

// dailyRatio is the double-averaged hour ratio of a route: for each flight
// date the hour mean is divided by that date's overall mean, then the ratios
// are averaged across dates.
func (rt *timeRoute) dailyRatio(hour int) (float64, bool) {
	byDate := rt.hours[hour]
	if len(byDate) == 0 {
		return 0, false
	}
	dayTotals := map[time.Time]stat{}
	for _, dates := range rt.hours {
		for d, s := range dates {
			t := dayTotals[d]
			t.count += s.count
			t.sum += s.sum
			dayTotals[d] = t
		}
	}
	ratios := make([]float64, 0, len(byDate))
	for d, s := range byDate {
		if day := dayTotals[d].mean(); day > 0 {
			ratios = append(ratios, s.mean()/day)
		}
	}
	if len(ratios) == 0 {
		return 0, false
	}
	return meanOf(ratios), true
}

func (rt *timeRoute) hourStat(hour int) stat {
	var out stat
	for _, s := range rt.hours[hour] {
		out.count += s.count
		out.sum += s.sum
	}
	return out
}

// timeView groups rates by route, departure hour and flight date.
type timeView struct {
	routes map[route]*timeRoute
	hours  map[int]struct{}
}

func newTimeView() *timeView {
	return &timeView{routes: map[route]*timeRoute{}, hours: map[int]struct{}{}}
}

func (v *timeView) add(o observation) {
	rt := v.routes[o.route]
	if rt == nil {
		rt = &timeRoute{hours: map[int]map[time.Time]*stat{}, dates: dateSet{}}
		v.routes[o.route] = rt
	}
	byDate := rt.hours[o.hour]
	if byDate == nil {
		byDate = map[time.Time]*stat{}
		rt.hours[o.hour] = byDate
	}
	s := byDate[o.rec.FlightDate]
	if s == nil {
		s = &stat{}
		byDate[o.rec.FlightDate] = s
	}
	s.add(o.rec.Rate)
	rt.total.add(o.rec.Rate)
	rt.dates.add(o.rec.FlightDate)
	v.hours[o.hour] = struct{}{}
}

func (v *timeView) materialize() *sink.Workbook {
	hours := sortedKeys(v.hours)
	routes := sortedRoutes(v.routes)
	header := withRouteColumn("航线", append(hourLabels(hours), "均值"))

	wb := &sink.Workbook{}
	density := wb.NewSheet(SheetTimeDensity, withRouteColumn("航线", hourLabels(hours))...)
	daily := wb.NewSheet(SheetTimeDaily, withRouteColumn("航线", hourLabels(hours))...)
	density.Average = true
	buckets := map[string]*sink.Sheet{
		BucketHigh: wb.NewSheet(BucketHigh, header...),
		BucketAvg:  wb.NewSheet(BucketAvg, header...),
		BucketLow:  wb.NewSheet(BucketLow, header...),
	}

	routeMeans := make([]float64, 0, len(routes))
	for _, r := range routes {
		routeMeans = append(routeMeans, v.routes[r].total.mean())
	}
	global := meanOf(routeMeans)

	for _, r := range routes {
		rt := v.routes[r]
		days := float64(len(rt.dates))

		dRow := []any{r.String()}
		yRow := []any{r.String()}
		bRow := []any{r.String()}
		for _, h := range hours {
			hs := rt.hourStat(h)
			dRow = append(dRow, ratio(float64(hs.count), days))
			if dr, ok := rt.dailyRatio(h); ok {
				yRow = append(yRow, preprocess.Round2(dr))
			} else {
				yRow = append(yRow, nil)
			}
			if hs.count > 0 {
				bRow = append(bRow, preprocess.Round2(hs.mean()))
			} else {
				bRow = append(bRow, nil)
			}
		}
		bRow = append(bRow, preprocess.Round2(rt.total.mean()))

		density.AddRow(dRow...)
		daily.AddRow(yRow...)
		buckets[bucketOf(rt.total.mean(), global)].AddRow(bRow...)
	}
	return wb
}
