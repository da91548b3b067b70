package rebuild

import (
	"sort"

	"github.com/flight-fares/fare-harvester/internal/preprocess"
	"github.com/flight-fares/fare-harvester/internal/sink"
)

// SheetCity is the single sheet of the city view.
const SheetCity = "城市"

// CityColumns are the headers of the city sheet.
var CityColumns = []string{
	"出发城市", "到达城市", "全价", "平均折扣", "数量",
	"from_factor", "from_loc", "from_class", "from_tourism",
	"to_factor", "to_loc", "to_class", "to_tourism",
	"航线系数", "航线类型",
}

// cityView keeps, per ordered city pair, the published fare followed by every
// observed rate.
type cityView struct {
	ref   Reference
	pairs map[string]map[string][]float64
}

func newCityView(ref Reference) *cityView {
	return &cityView{ref: ref, pairs: map[string]map[string][]float64{}}
}

func (v *cityView) add(o observation) {
	from, to := o.route.From, o.route.To
	if from == to {
		return
	}
	dest := v.pairs[from]
	if dest == nil {
		dest = map[string][]float64{}
		v.pairs[from] = dest
	}
	rates, ok := dest[to]
	if !ok {
		rates = []float64{float64(v.ref.FullFare(from, to))}
	}
	dest[to] = append(rates, o.rec.Rate)
}

func (v *cityView) cities() []string {
	set := map[string]struct{}{}
	for from, dest := range v.pairs {
		set[from] = struct{}{}
		for to := range dest {
			set[to] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (v *cityView) materialize() *sink.Workbook {
	wb := &sink.Workbook{}
	s := wb.NewSheet(SheetCity, CityColumns...)

	cities := v.cities()
	for _, from := range cities {
		for _, to := range cities {
			values, ok := v.pairs[from][to]
			if !ok || len(values) < 2 {
				continue
			}
			rates := values[1:]
			f := v.ref.Places(from)
			t := v.ref.Places(to)
			s.AddRow(
				from, to, int(values[0]), preprocess.Round2(meanOf(rates)), len(rates),
				f.AirportFactor, f.CityLocation, f.CityClass, boolCell(f.Tourism),
				t.AirportFactor, t.CityLocation, t.CityClass, boolCell(t.Tourism),
				preprocess.Round2(v.ref.RouteFactor(from, to)), v.ref.RouteClass(from, to),
			)
		}
	}
	return wb
}

func boolCell(b bool) int {
	if b {
		return 1
	}
	return 0
}
