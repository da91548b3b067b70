package rebuild

import (
	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// Airline view sheet names.
const (
	SheetAirlineDensity = "航司日密度"
	SheetHourDensity    = "时段密度"
	SheetHourCompete    = "时段竞争"
	SheetAirlineRate    = "航司均价"
)

type airlineStat struct {
	stat
	hours map[int]*stat
}

type airlineRoute struct {
	airlines map[string]*airlineStat
	total    stat
	dates    dateSet
}

// airlineView groups rates by route, airline and departure hour.
type airlineView struct {
	routes   map[route]*airlineRoute
	airlines map[string]struct{}
	hours    map[int]struct{}
}

func newAirlineView() *airlineView {
	return &airlineView{
		routes:   map[route]*airlineRoute{},
		airlines: map[string]struct{}{},
		hours:    map[int]struct{}{},
	}
}

func (v *airlineView) add(o observation) {
	rt := v.routes[o.route]
	if rt == nil {
		rt = &airlineRoute{airlines: map[string]*airlineStat{}, dates: dateSet{}}
		v.routes[o.route] = rt
	}
	a := rt.airlines[o.rec.Airline]
	if a == nil {
		a = &airlineStat{hours: map[int]*stat{}}
		rt.airlines[o.rec.Airline] = a
	}
	h := a.hours[o.hour]
	if h == nil {
		h = &stat{}
		a.hours[o.hour] = h
	}

	a.add(o.rec.Rate)
	h.add(o.rec.Rate)
	rt.total.add(o.rec.Rate)
	rt.dates.add(o.rec.FlightDate)
	v.airlines[o.rec.Airline] = struct{}{}
	v.hours[o.hour] = struct{}{}
}

// hourTotals merges the per-airline hour buckets of a route.
func (rt *airlineRoute) hourTotals() (map[int]stat, map[int]int) {
	totals := map[int]stat{}
	competitors := map[int]int{}
	for _, a := range rt.airlines {
		for h, s := range a.hours {
			t := totals[h]
			t.count += s.count
			t.sum += s.sum
			totals[h] = t
			competitors[h]++
		}
	}
	return totals, competitors
}

func (v *airlineView) materialize() *sink.Workbook {
	airlines := sortedKeys(v.airlines)
	hours := sortedKeys(v.hours)
	routes := sortedRoutes(v.routes)

	wb := &sink.Workbook{}
	density := wb.NewSheet(SheetAirlineDensity, withRouteColumn("航线", airlines)...)
	hourDensity := wb.NewSheet(SheetHourDensity, withRouteColumn("航线", hourLabels(hours))...)
	compete := wb.NewSheet(SheetHourCompete, withRouteColumn("航线", hourLabels(hours))...)
	rates := wb.NewSheet(SheetAirlineRate, withRouteColumn("航线", airlines)...)
	density.Average, hourDensity.Average, compete.Average = true, true, true

	for _, r := range routes {
		rt := v.routes[r]
		days := float64(len(rt.dates))

		dRow := []any{r.String()}
		rRow := []any{r.String()}
		for _, name := range airlines {
			a := rt.airlines[name]
			if a == nil {
				dRow = append(dRow, 0.0)
				rRow = append(rRow, nil)
				continue
			}
			dRow = append(dRow, ratio(float64(a.count), days))
			rRow = append(rRow, preprocess.Round2(a.mean()))
		}
		density.AddRow(dRow...)
		rates.AddRow(rRow...)

		totals, competitors := rt.hourTotals()
		hdRow := []any{r.String()}
		cRow := []any{r.String()}
		for _, h := range hours {
			hdRow = append(hdRow, ratio(float64(totals[h].count), days))
			cRow = append(cRow, competitors[h])
		}
		hourDensity.AddRow(hdRow...)
		compete.AddRow(cRow...)
	}

	for _, name := range airlines {
		s := wb.NewSheet(name, withRouteColumn("航线", hourLabels(hours))...)
		for _, r := range routes {
			a := v.routes[r].airlines[name]
			if a == nil {
				continue
			}
			row := []any{r.String()}
			for _, h := range hours {
				if hs := a.hours[h]; hs != nil {
					row = append(row, preprocess.Round2(hs.mean()))
				} else {
					row = append(row, nil)
				}
			}
			s.AddRow(row...)
		}
	}
	return wb
}
