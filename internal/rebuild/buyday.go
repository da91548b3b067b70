package rebuild

import (
	"strconv"

	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// Buyday view sheet names; the bucket sheets use BucketHigh, BucketAvg and BucketLow.
const (
	SheetBuydayDensity = "密度"
	SheetBuydayAll     = "总表"
)

type leadStat struct {
	stat
	collects dateSet
}

type buydayRoute struct {
	leads map[int]*leadStat
	total stat
}

// meanOfMeans averages the per-lead-day means of the route.
func (rt *buydayRoute) meanOfMeans() float64 {
	means := make([]float64, 0, len(rt.leads))
	for _, l := range rt.leads {
		means = append(means, l.mean())
	}
	return meanOf(means)
}

// buydayView groups rates by route and days before departure.
type buydayView struct {
	routes map[route]*buydayRoute
	leads  map[int]struct{}
}

func newBuydayView() *buydayView {
	return &buydayView{routes: map[route]*buydayRoute{}, leads: map[int]struct{}{}}
}

func (v *buydayView) add(o observation) {
	rt := v.routes[o.route]
	if rt == nil {
		rt = &buydayRoute{leads: map[int]*leadStat{}}
		v.routes[o.route] = rt
	}
	l := rt.leads[o.lead]
	if l == nil {
		l = &leadStat{collects: dateSet{}}
		rt.leads[o.lead] = l
	}
	l.add(o.rec.Rate)
	l.collects.add(o.collect)
	rt.total.add(o.rec.Rate)
	v.leads[o.lead] = struct{}{}
}

func leadLabels(leads []int) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = strconv.Itoa(l)
	}
	return out
}

func (v *buydayView) materialize() *sink.Workbook {
	leads := sortedKeys(v.leads)
	routes := sortedRoutes(v.routes)
	header := withRouteColumn("航线", append(leadLabels(leads), "均值"))

	wb := &sink.Workbook{}
	density := wb.NewSheet(SheetBuydayDensity, withRouteColumn("航线", leadLabels(leads))...)
	density.Average = true
	buckets := map[string]*sink.Sheet{
		BucketHigh: wb.NewSheet(BucketHigh, header...),
		BucketAvg:  wb.NewSheet(BucketAvg, header...),
		BucketLow:  wb.NewSheet(BucketLow, header...),
	}
	all := wb.NewSheet(SheetBuydayAll, header...)

	means := make(map[route]float64, len(routes))
	routeMeans := make([]float64, 0, len(routes))
	for _, r := range routes {
		m := v.routes[r].meanOfMeans()
		means[r] = m
		routeMeans = append(routeMeans, m)
	}
	global := meanOf(routeMeans)

	for _, r := range routes {
		rt := v.routes[r]
		dRow := []any{r.String()}
		rRow := []any{r.String()}
		for _, lead := range leads {
			l := rt.leads[lead]
			if l == nil {
				dRow = append(dRow, 0.0)
				rRow = append(rRow, nil)
				continue
			}
			dRow = append(dRow, ratio(float64(l.count), float64(len(l.collects))))
			rRow = append(rRow, preprocess.Round2(l.mean()))
		}
		rRow = append(rRow, preprocess.Round2(means[r]))

		density.AddRow(dRow...)
		buckets[bucketOf(means[r], global)].AddRow(rRow...)
		all.AddRow(rRow...)
	}
	return wb
}
