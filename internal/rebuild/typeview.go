package rebuild

import (
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// Type view sheet names.
const (
	SheetType      = "机型"
	SheetTypeMixed = "机型(多机型)"
)

// TypeColumns are the headers of both type sheets. The last three columns
// are share formulas over the daily counts in E:G.
var TypeColumns = []string{
	"航线", "S均价", "M均价", "L均价", "S日均", "M日均", "L日均", "S占比", "M占比", "L占比",
}

var craftSizes = []domain.CraftSize{domain.CraftSmall, domain.CraftMedium, domain.CraftLarge}

// shareFormulas reference the daily count columns E, F and G of the same row.
var shareFormulas = [3]string{
	"E{r}/SUM(E{r}:G{r})",
	"F{r}/SUM(E{r}:G{r})",
	"G{r}/SUM(E{r}:G{r})",
}

type typeRoute struct {
	sizes map[domain.CraftSize]*stat
	dates dateSet
	total stat
}

// typeView groups rates by route and aircraft size.
type typeView struct {
	routes map[route]*typeRoute
}

func newTypeView() *typeView {
	return &typeView{routes: map[route]*typeRoute{}}
}

func (v *typeView) add(o observation) {
	rt := v.routes[o.route]
	if rt == nil {
		rt = &typeRoute{sizes: map[domain.CraftSize]*stat{}, dates: dateSet{}}
		v.routes[o.route] = rt
	}
	s := rt.sizes[o.rec.Craft]
	if s == nil {
		s = &stat{}
		rt.sizes[o.rec.Craft] = s
	}
	s.add(o.rec.Rate)
	rt.dates.add(o.rec.FlightDate)
	rt.total.add(o.rec.Rate)
}

func (rt *typeRoute) row(name string) []any {
	days := float64(len(rt.dates))
	row := []any{name}
	daily := make([]float64, len(craftSizes))
	for i, size := range craftSizes {
		s := rt.sizes[size]
		if s == nil {
			row = append(row, nil)
			continue
		}
		row = append(row, preprocess.Round2(s.mean()))
		daily[i] = ratio(float64(s.count), days)
	}
	sum := 0.0
	for _, d := range daily {
		row = append(row, d)
		sum += d
	}
	for i, expr := range shareFormulas {
		row = append(row, sink.Formula{Expr: expr, Value: ratio(daily[i], sum)})
	}
	return row
}

func (v *typeView) materialize() *sink.Workbook {
	wb := &sink.Workbook{}
	full := wb.NewSheet(SheetType, TypeColumns...)
	mixed := wb.NewSheet(SheetTypeMixed, TypeColumns...)

	for _, r := range sortedRoutes(v.routes) {
		rt := v.routes[r]
		row := rt.row(r.String())
		full.AddRow(row...)
		if len(rt.sizes) > 1 {
			mixed.AddRow(row...)
		}
	}
	return wb
}
